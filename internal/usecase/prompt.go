package usecase

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"admissionrag/internal/domain"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

const defaultTemplate = "templates/answer_prompt.txt"

// DefaultSystemPrompt is the counsellor instruction placed before every question.
const DefaultSystemPrompt = "너는 세종대학교 입시 전문 상담 챗봇이야.\n" +
	"아래 정보에 기반해 사용자 질문에 성실하고 정확하게, 표나 리스트로 깔끔하게 안내해줘.\n" +
	"불확실한 경우 '입학처로 문의하시기 바랍니다'라고 안내해."

// PromptData is passed to the prompt template.
type PromptData struct {
	System   string
	Query    string
	Snippets []domain.Snippet
}

// PromptAssembler renders the question and its retrieved context into the
// text sent to the generation provider.
type PromptAssembler struct {
	system string
	tmpl   *template.Template
}

// NewPromptAssembler parses templateFile, or the embedded answer template
// when templateFile is empty. An empty system falls back to DefaultSystemPrompt.
func NewPromptAssembler(system, templateFile string) (*PromptAssembler, error) {
	var (
		content []byte
		err     error
	)
	if templateFile != "" {
		content, err = os.ReadFile(templateFile)
	} else {
		content, err = promptTemplates.ReadFile(defaultTemplate)
	}
	if err != nil {
		return nil, fmt.Errorf("template not found: %w", err)
	}

	tmpl, err := template.New("prompt").Funcs(templateFuncs()).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	if system == "" {
		system = DefaultSystemPrompt
	}
	return &PromptAssembler{system: system, tmpl: tmpl}, nil
}

// Assemble renders the prompt. No snippets still yields a prompt with an
// empty reference section.
func (a *PromptAssembler) Assemble(query string, snippets []domain.Snippet) (string, error) {
	data := PromptData{
		System:   a.system,
		Query:    strings.TrimSpace(query),
		Snippets: snippets,
	}

	var buf bytes.Buffer
	if err := a.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"inc":  func(i int) int { return i + 1 },
		"join": strings.Join,
	}
}
