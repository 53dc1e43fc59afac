// Package saga implements the workflow orchestration engine driving the
// delivery lifecycle.
//
// A Workflow is an ordered list of Steps. Each Step declares a forward action
// and an optional compensating action, plus a retry budget and timeout. The
// Engine runs steps strictly in order; when any step fails terminally, the
// compensating actions of all previously committed steps run in reverse commit
// order (best effort: a failed compensation is logged and the cascade
// continues).
//
// A forward action may suspend instead of completing: it returns
// Suspend(stepID) and the Engine parks the step in the AsyncStepRegistry with
// a deadline. The workflow instance yields without occupying a worker; other
// instances keep making progress. A suspended step is later resolved by
// exactly one of three contenders:
//
//   - an external success signal (Engine.ResolveStepSuccess), e.g. a driver claim
//   - an external failure signal (Engine.ResolveStepFailure)
//   - the timeout sweeper (Engine.ExpireDueSteps), which re-runs the forward
//     action while retry budget remains and fails the step afterwards
//
// Exactly-once resolution is enforced by atomic removal from the registry:
// the first resolver takes the entry, later resolvers observe
// ErrUnknownStepID and treat it as a no-op.
//
// The registry is an injected component with an explicit lifecycle, not an
// ambient singleton: the composition root creates it at startup, hands it to
// the Engine and the sweeper job, and drains it at shutdown.
//
// Executions live for the process lifetime only. Durable persistence of
// in-flight saga state is an extension point, not provided here.
package saga
