package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

type PromptID string

const (
	PromptSearchQAV1       PromptID = "search_qa_v1"
	PromptContextRankV1    PromptID = "context_rank_v1"
	PromptQueryDecomposeV1 PromptID = "query_decompose_v1"
	PromptSuggestionsV1    PromptID = "suggestions_v1"
)

type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	systemPath, userPath, err := resolvePromptFiles(id)
	if err != nil {
		return nil, err
	}
	system, err := readEmbeddedText(systemPath)
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText(userPath)
	if err != nil {
		return nil, err
	}

	tpl := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	r.cache[id] = tpl
	return tpl, nil
}

func resolvePromptFiles(id PromptID) (systemFile string, userFile string, err error) {
	switch id {
	case PromptSearchQAV1:
		return "templates/search_qa_v1.system.txt", "templates/search_qa_v1.user.txt", nil
	case PromptContextRankV1:
		return "templates/context_rank_v1.system.txt", "templates/context_rank_v1.user.txt", nil
	case PromptQueryDecomposeV1:
		return "templates/query_decompose_v1.system.txt", "templates/query_decompose_v1.user.txt", nil
	case PromptSuggestionsV1:
		return "templates/suggestions_v1.system.txt", "templates/suggestions_v1.user.txt", nil
	default:
		return "", "", fmt.Errorf("unknown prompt id: %s", id)
	}
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
