package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"admissionrag/internal/domain"
)

// Answerer is the TUI-facing subset of the assistant.
type Answerer interface {
	Answer(ctx context.Context, query string) (*domain.Answer, error)
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#C3002F")).
			Padding(0, 1)

	menuStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C3002F")).Bold(true)
	answerBox     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBox      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).MarginTop(1)
)

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	ctx       context.Context
	assistant Answerer
	timeout   time.Duration

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	preset  int // -1 = none selected
	answer  *domain.Answer
	err     error
	loading bool
	ready   bool
	status  string
}

type answerMsg struct {
	answer *domain.Answer
	err    error
}

// New creates a chat model. Questions are asked under ctx, each bounded by
// timeout; 0 means none.
func New(ctx context.Context, assistant Answerer, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "궁금한 점을 직접 입력하거나, 메뉴를 선택해 주세요!"
	ti.CharLimit = 0
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:       ctx,
		assistant: assistant,
		timeout:   timeout,
		input:     ti,
		viewport:  viewport.New(80, 10),
		spinner:   sp,
		preset:    -1,
		status:    "Tab: 메뉴 선택  Enter: 질문하기  Esc: 종료",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		fw, fh := answerBox.GetFrameSize()
		reserved := len(Presets) + strings.Count(OfficeContact, "\n") + 10
		m.viewport.Width = max(20, msg.Width-fw)
		m.viewport.Height = max(3, msg.Height-reserved-fh)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil

	case answerMsg:
		m.loading = false
		m.answer = msg.answer
		m.err = msg.err
		if msg.err != nil {
			m.status = "오류가 발생했습니다"
		} else {
			m.status = "답변 완료"
		}
		m.viewport.SetContent(m.renderAnswer())
		m.viewport.GotoTop()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}
		if m.loading {
			return m, nil
		}
		switch msg.String() {
		case "tab":
			m.selectPreset((m.preset + 1) % len(Presets))
			return m, nil
		case "shift+tab":
			m.selectPreset((m.preset - 1 + len(Presets)) % len(Presets))
			return m, nil
		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			m.loading = true
			m.err = nil
			m.status = "답변 생성 중..."
			return m, tea.Batch(m.spinner.Tick, m.ask(q))
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) selectPreset(i int) {
	if i < 0 {
		i = len(Presets) - 1
	}
	m.preset = i
	m.input.SetValue(Presets[i].Question)
	m.input.CursorEnd()
}

func (m Model) ask(q string) tea.Cmd {
	return func() tea.Msg {
		ctx := m.ctx
		if m.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, m.timeout)
			defer cancel()
		}
		answer, err := m.assistant.Answer(ctx, q)
		return answerMsg{answer: answer, err: err}
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("세종대학교 입시 상담 챗봇"))
	b.WriteString("\n\n")

	for i, p := range Presets {
		line := fmt.Sprintf("  %d. %s", i+1, p.Title)
		if i == m.preset {
			b.WriteString(selectedStyle.Render("▸ " + line[2:]))
		} else {
			b.WriteString(menuStyle.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(answerBox.Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(inputBox.Render(m.input.View()))
	b.WriteString("\n")

	if m.loading {
		b.WriteString(m.spinner.View() + " ")
	}
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
	b.WriteString(footerStyle.Render(OfficeContact))
	return b.String()
}

func (m Model) renderAnswer() string {
	if m.err != nil {
		return errorStyle.Render("오류: " + m.err.Error())
	}
	if m.answer == nil {
		return "질문을 입력하면 답변이 여기에 표시됩니다."
	}

	var b strings.Builder
	b.WriteString("#### 답변\n")
	b.WriteString(m.answer.Text)
	if len(m.answer.Sources) > 0 {
		b.WriteString("\n\n출처: ")
		b.WriteString(strings.Join(m.answer.Sources, ", "))
	}
	return b.String()
}

// Run starts the chat screen and blocks until the user quits.
func Run(ctx context.Context, assistant Answerer, timeout time.Duration) error {
	p := tea.NewProgram(New(ctx, assistant, timeout), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
