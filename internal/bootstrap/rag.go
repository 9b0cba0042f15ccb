package bootstrap

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phuslu/log"

	"github.com/hecopilot/copilot-backend/config"
	"github.com/hecopilot/copilot-backend/internal/llm"
	"github.com/hecopilot/copilot-backend/internal/rag/repository"
)

// NewSearcher picks the ranked search backend.
func NewSearcher(cfg config.SearchConfig, pool *pgxpool.Pool) (repository.Searcher, error) {
	switch cfg.Backend {
	case "local":
		idx := repository.NewLocalIndex()
		if err := idx.Load(cfg.SnippetsDir); err != nil {
			return nil, fmt.Errorf("load snippets from %s: %w", cfg.SnippetsDir, err)
		}
		log.Info().Str("dir", cfg.SnippetsDir).Int("documents", idx.Len()).Msg("local search index loaded")
		return idx, nil
	case "postgres":
		if pool == nil {
			return nil, fmt.Errorf("postgres search backend needs a database pool")
		}
		s, err := repository.NewPGSearcher(pool, cfg.Function)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown search backend %q", cfg.Backend)
	}
}

// NewCompleter builds the configured chat completion client. Missing keys
// are reported per request by Ready.
func NewCompleter(cfg config.LLMConfig) llm.Completer {
	if cfg.Provider == "anthropic" {
		return llm.NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.Timeout)
	}
	return llm.NewOpenAI(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.Timeout)
}
