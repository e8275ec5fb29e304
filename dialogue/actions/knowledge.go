package actions

import (
	"context"

	"github.com/taskforge-ai/dialoguebot/dialogue"
	"github.com/taskforge-ai/dialoguebot/llm"
	"github.com/taskforge-ai/dialoguebot/retrieval"
)

// AnswerQuestion implements spec.md §4.1 "Answer question / Search
// knowledge base": delegates to RG, optionally composed with LD when the
// retrieval confidence is not high enough to answer on its own.
type AnswerQuestion struct {
	Retrieval *retrieval.Service
	LLM       *llm.Dispatcher // nil when no LLM is configured
}

func (a *AnswerQuestion) Run(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
	answer, err := a.Retrieval.Answer(ctx, rc.Text, rc.Intent.Name)
	if err != nil {
		return apology("answer_question", err)
	}

	if answer.RefusalReason != "" {
		return dialogue.Result{}, dialogue.NewActionError(dialogue.ErrorKindGuardrail, "answer_question", "guardrail:"+answer.RefusalReason, nil)
	}

	llmCfg := rc.LLMConfig(ctx)
	if answer.ShouldAnswer {
		warnings, downgrade := retrieval.ValidateNumericGrounding(answer.Text, answer.Results)
		if downgrade {
			answer.Confidence = retrieval.DowngradeConfidence(answer.Confidence)
		}
		answer.Warnings = append(answer.Warnings, warnings...)
		if answer.Confidence == retrieval.ConfidenceHigh || a.LLM == nil || !llmCfg.UseKnowledgeBase {
			return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(answer.Text)}}, nil
		}
	}

	if a.LLM == nil || !llmCfg.FallbackToLLM {
		return dialogue.Result{}, dialogue.NewActionError(dialogue.ErrorKindNotFound, "answer_question", "no grounded answer available", nil)
	}

	retrievedContext := ""
	if len(answer.Results) > 0 {
		retrievedContext = answer.Results[0].Text
	}
	resp := a.LLM.Generate(ctx, rc.Text, retrievedContext)
	if !resp.Success {
		return dialogue.Result{}, dialogue.NewActionError(dialogue.ErrorKindUpstreamUnavailable, "answer_question", resp.Error, nil)
	}
	return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(resp.Response)}}, nil
}

// LLMFallback implements spec.md §4.1 "LLM fallback": triggered when the
// NLU front-end reports low intent confidence and LLM fallback is enabled.
type LLMFallback struct {
	LLM *llm.Dispatcher
}

func (a *LLMFallback) Run(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
	llmCfg := rc.LLMConfig(ctx)
	if a.LLM == nil || !llmCfg.FallbackToLLM {
		botCfg := rc.BotConfig(ctx)
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(botCfg.FallbackText)}}, nil
	}
	resp := a.LLM.Generate(ctx, rc.Text, "")
	if !resp.Success {
		botCfg := rc.BotConfig(ctx)
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(botCfg.FallbackText)}}, nil
	}
	return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(resp.Response)}}, nil
}
