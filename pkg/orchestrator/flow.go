package orchestrator

import (
	"context"
	"fmt"

	"github.com/zen-systems/promptdock/pkg/pipeline"
	"github.com/zen-systems/promptdock/pkg/reason"
)

// NewPipeline assembles the standard five-stage flow for one instruction.
// Stages pass data exclusively through the shared context: each reads the
// "<name>_result" keys of the stages before it. Command and goal intents
// go through the same handlers Process uses, so guardrails, tools, and
// plan state apply on this path too. Reasoning failures become result
// values rather than stage failures, so the pipeline runs to completion
// and the error text reaches the user.
func (o *Orchestrator) NewPipeline(ctx context.Context, input string) *pipeline.Pipeline {
	return pipeline.New().
		AddStage("initialize_context", func(pc pipeline.Context) (any, error) {
			pc["session_id"] = o.scopes.Session.ID
			return o.fullContext(), nil
		}, pipeline.WithDescription("Render context layers and memory")).
		AddStage("interpret_instruction", func(pc pipeline.Context) (any, error) {
			contextStr, _ := pc["initialize_context_result"].(string)
			return o.reasoner.InterpretIntent(ctx, input, contextStr), nil
		}, pipeline.WithDescription("Classify the instruction into an intent")).
		AddStage("decide_action", func(pc pipeline.Context) (any, error) {
			intent, _ := pc["interpret_instruction_result"].(reason.Intent)
			switch intent.Type {
			case "command":
				return "execute_command", nil
			case "goal":
				return "create_plan", nil
			default:
				return "generate_response", nil
			}
		}, pipeline.WithDescription("Map intent type to an action")).
		AddStage("invoke_action", func(pc pipeline.Context) (any, error) {
			decision, _ := pc["decide_action_result"].(string)
			intent, _ := pc["interpret_instruction_result"].(reason.Intent)

			switch decision {
			case "execute_command":
				return o.handleCommand(ctx, input, intent)
			case "create_plan":
				return o.handleGoal(ctx, input, intent)
			default:
				contextStr, _ := pc["initialize_context_result"].(string)
				response, err := o.reasoner.GenerateResponse(ctx, input, contextStr)
				if err != nil {
					o.errors.Track("reasoning", err.Error(), input)
					return fmt.Sprintf("Reasoning error: %v", err), nil
				}
				return response, nil
			}
		}, pipeline.WithDescription("Execute, plan, or respond, per the decision")).
		AddStage("update_state", func(pc pipeline.Context) (any, error) {
			o.scopes.Session.IncrementMessages()
			return map[string]any{
				"output": pc["invoke_action_result"],
				"intent": pc["interpret_instruction_result"],
				"action": pc["decide_action_result"],
			}, nil
		}, pipeline.WithDescription("Record session progress and summarize"))
}

// Run sends one instruction through the pipeline and returns its rendered
// output. This is the primary entry point for interactive use; Process
// remains for callers that want the routed handlers without staging.
func (o *Orchestrator) Run(ctx context.Context, input string) (string, error) {
	result := o.NewPipeline(ctx, input).Execute(nil)
	if !result.Success {
		return "", fmt.Errorf("pipeline failed after %d step(s): %s", result.StepsCompleted, result.Err)
	}
	summary, ok := result.Output.(map[string]any)
	if !ok {
		return "", fmt.Errorf("pipeline produced unexpected output %T", result.Output)
	}
	return fmt.Sprintf("%v", summary["output"]), nil
}
