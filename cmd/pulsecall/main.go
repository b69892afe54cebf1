//go:build cgo

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/stopwatch"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	orchestration "github.com/AustinNg0321/PulseCall/core"
	"github.com/AustinNg0321/PulseCall/core/audio/miniaudio"
	"github.com/AustinNg0321/PulseCall/core/llms/openrouter"
	"github.com/AustinNg0321/PulseCall/core/patients"
	smallestSTT "github.com/AustinNg0321/PulseCall/core/speechtotext/smallest"
	smallestTTS "github.com/AustinNg0321/PulseCall/core/texttospeech/smallest"
)

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	stateStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	assistantStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	patientStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	reportStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	escalationStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type transcriptLine struct {
	speaker string
	text    string
}

type (
	stateChangedMsg orchestration.CallState
	transcriptMsg   transcriptLine
	reportMsg       *orchestration.CallReport
	callEndedMsg    struct{ err error }
)

type model struct {
	session   *orchestration.CallSession
	patient   patients.Record
	spinner   spinner.Model
	stopwatch stopwatch.Model

	width      int
	state      orchestration.CallState
	transcript []transcriptLine
	report     *orchestration.CallReport
	callErr    error
	thinking   bool
}

func newModel(session *orchestration.CallSession, patient patients.Record) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return model{
		session:   session,
		patient:   patient,
		spinner:   s,
		stopwatch: stopwatch.New(),
		width:     80,
		state:     session.State(),
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.state == orchestration.CallStateEnded && m.report != nil || m.callErr != nil {
				return m, tea.Quit
			}
			m.session.Hangup()
			return m, nil
		}
		return m, nil

	case stateChangedMsg:
		m.state = orchestration.CallState(msg)
		if m.state == orchestration.CallStateConnected {
			return m, m.stopwatch.Start()
		}
		if m.state == orchestration.CallStateEnded {
			return m, m.stopwatch.Stop()
		}
		return m, nil

	case transcriptMsg:
		m.transcript = append(m.transcript, transcriptLine(msg))
		m.thinking = msg.speaker == "Patient"
		return m, nil

	case reportMsg:
		m.report = msg
		m.thinking = false
		return m, nil

	case callEndedMsg:
		m.callErr = msg.err
		m.thinking = false
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.stopwatch, cmd = m.stopwatch.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var view strings.Builder

	view.WriteString(titleStyle.Render("PulseCall"))
	view.WriteString(stateStyle.Render(fmt.Sprintf("  %s check-in · %s · %s",
		m.patient.Name, m.state, m.stopwatch.View())))
	view.WriteString("\n\n")

	for _, line := range m.transcript {
		style := assistantStyle
		if line.speaker == "Patient" {
			style = patientStyle
		}
		wrapped := wordwrap.String(fmt.Sprintf("%s: %s", line.speaker, line.text), max(m.width-2, 20))
		view.WriteString(style.Render(wrapped))
		view.WriteString("\n")
	}

	switch {
	case m.callErr != nil:
		view.WriteString("\n" + escalationStyle.Render(fmt.Sprintf("Call failed: %v", m.callErr)) + "\n")
	case m.report != nil:
		view.WriteString("\n" + m.reportView())
	case m.thinking:
		view.WriteString(fmt.Sprintf("\n%s thinking...\n", m.spinner.View()))
	case m.state == orchestration.CallStateConnected:
		view.WriteString(fmt.Sprintf("\n%s listening...\n", m.spinner.View()))
	}

	if m.state == orchestration.CallStateEnded || m.callErr != nil {
		view.WriteString(helpStyle.Render("\nq: quit"))
	} else {
		view.WriteString(helpStyle.Render("\nq: hang up"))
	}
	view.WriteString("\n")

	return view.String()
}

func (m model) reportView() string {
	var view strings.Builder
	report := m.report

	view.WriteString(reportStyle.Render("Call report"))
	view.WriteString("\n")
	if summary := report.Summary; summary != nil {
		if summary.PainLevel != nil {
			view.WriteString(fmt.Sprintf("  Pain level: %d/10\n", *summary.PainLevel))
		}
		if len(summary.Symptoms) > 0 {
			view.WriteString(fmt.Sprintf("  Symptoms: %s\n", strings.Join(summary.Symptoms, ", ")))
		}
		if summary.PTExercise != nil {
			view.WriteString(fmt.Sprintf("  PT exercises: %t\n", *summary.PTExercise))
		}
		if summary.Summary != "" {
			view.WriteString(wordwrap.String("  "+summary.Summary, max(m.width-2, 20)))
			view.WriteString("\n")
		}
	}
	view.WriteString(fmt.Sprintf("  Sentiment: %d/5\n", report.SentimentScore))
	if len(report.DetectedFlags) > 0 {
		view.WriteString(escalationStyle.Render(fmt.Sprintf("  Flags: %s", strings.Join(report.DetectedFlags, ", "))))
		view.WriteString("\n")
	}
	view.WriteString(wordwrap.String("  "+report.RecommendedAction, max(m.width-2, 20)))
	view.WriteString("\n")

	return view.String()
}

func run() error {
	transcriber, err := smallestSTT.NewClient()
	if err != nil {
		return err
	}
	synthesizer, err := smallestTTS.NewClient()
	if err != nil {
		return err
	}
	generator, err := openrouter.NewClient(
		openrouter.WithAppAttribution("http://localhost:3000", "PulseCall"),
	)
	if err != nil {
		return err
	}
	audioClient, err := miniaudio.NewClient()
	if err != nil {
		return err
	}
	defer audioClient.Close()

	patient := patients.Demo()

	var program *tea.Program

	session := orchestration.NewCallSession(patient,
		orchestration.WithAudioInput(audioClient),
		orchestration.WithAudioOutput(audioClient),
		orchestration.WithTranscriber(transcriber),
		orchestration.WithSynthesizer(synthesizer),
		orchestration.WithGenerator(generator),
		orchestration.WithSummarizer(orchestration.NewSummarizer(generator)),
		orchestration.WithEscalationKeywords("chest pain", "can't breathe", "cancel"),
		orchestration.WithStateChangedCallback(func(state orchestration.CallState) {
			program.Send(stateChangedMsg(state))
		}),
		orchestration.WithTranscriptionCallback(func(transcript string) {
			program.Send(transcriptMsg{speaker: "Patient", text: transcript})
		}),
		orchestration.WithReplyCallback(func(reply string) {
			program.Send(transcriptMsg{speaker: "Assistant", text: reply})
		}),
		orchestration.WithReportCallback(func(report *orchestration.CallReport) {
			program.Send(reportMsg(report))
		}),
	)

	program = tea.NewProgram(newModel(session, patient))

	go func() {
		err := session.Answer(context.Background())
		program.Send(callEndedMsg{err: err})
	}()

	_, err = program.Run()
	session.Hangup()
	return err
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
