package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/cropscan/internal/detect"
	"github.com/fakeyudi/cropscan/internal/history"
	"github.com/fakeyudi/cropscan/internal/nav"
)

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("28")).
			Padding(0, 2)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)

	diseasedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	statBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 2).
			Align(lipgloss.Center)

	adviceBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

// diseaseBadge styles a disease label by its health classification.
func diseaseBadge(disease string) string {
	if history.IsHealthyLabel(disease) {
		return healthyStyle.Render(disease)
	}
	return diseasedStyle.Render(disease)
}

// confidencePercent formats a [0,1] confidence fraction for display.
// Percentage formatting lives only here; the stored value stays a fraction.
func confidencePercent(c float64) string {
	return fmt.Sprintf("%.1f%%", c*100)
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  cropscan — " + m.view.String())

	var content string
	switch m.view {
	case nav.ViewLoading:
		content = m.renderLoading()
	case nav.ViewLogin:
		content = m.renderLogin()
	case nav.ViewRegister:
		content = m.renderRegister()
	case nav.ViewDashboard:
		content = m.dash.View()
	case nav.ViewDetect:
		content = m.renderDetect()
	}

	statusBar := statusBarStyle.Width(m.width).Render(m.hintLine())
	body := lipgloss.NewStyle().Height(maxInt(m.height-2, 1)).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, title, body, statusBar)
}

func (m Model) hintLine() string {
	hint := ""
	switch m.view {
	case nav.ViewLogin:
		hint = "tab fields  enter sign in  ctrl+r register  ctrl+c quit"
	case nav.ViewRegister:
		hint = "tab fields  enter create account  esc back to login  ctrl+c quit"
	case nav.ViewDashboard:
		hint = "d detect  r refresh  l logout  ↑/↓ scroll  q quit"
	case nav.ViewDetect:
		hint = "enter select  ctrl+a analyze  ctrl+s save  ctrl+x reset  esc dashboard"
	default:
		hint = "ctrl+c quit"
	}
	if m.status != "" {
		hint += "  │  " + m.status
	}
	return hint
}

func (m Model) renderLoading() string {
	return "\n  " + m.spin.View() + " Checking session…\n"
}

// renderForm draws labeled inputs with an inline error underneath.
func (m Model) renderForm(title string, labels []string, inputs []string, footer string) string {
	var sb strings.Builder
	sb.WriteString(heading(title))
	for i, label := range labels {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-12s", label)) + inputs[i] + "\n")
	}
	sb.WriteString("\n")
	if m.formBusy {
		sb.WriteString("  " + m.spin.View() + " contacting server…\n")
	}
	if m.formErr != "" {
		sb.WriteString("  " + errorStyle.Render(m.formErr) + "\n")
	}
	if footer != "" {
		sb.WriteString("\n  " + dimStyle.Render(footer) + "\n")
	}
	return sb.String()
}

func (m Model) renderLogin() string {
	return m.renderForm(
		"Sign in",
		[]string{"Email:", "Password:"},
		[]string{m.loginInputs[fieldEmail].View(), m.loginInputs[fieldPassword].View()},
		"No account yet? Press ctrl+r to register.",
	)
}

func (m Model) renderRegister() string {
	return m.renderForm(
		"Create account",
		[]string{"Email:", "Password:", "First name:", "Last name:"},
		[]string{
			m.regInputs[fieldEmail].View(),
			m.regInputs[fieldPassword].View(),
			m.regInputs[fieldFirstName].View(),
			m.regInputs[fieldLastName].View(),
		},
		"Already registered? Press esc to sign in.",
	)
}

// ── Dashboard ─────────────────

func (m Model) renderDashboardContent() string {
	var sb strings.Builder

	if user, ok := m.store.User(); ok {
		sb.WriteString(heading("Welcome back, " + user.DisplayName() + "!"))
	} else {
		sb.WriteString(heading("Dashboard"))
	}

	snap := m.agg.Snapshot()

	if m.historyErr != "" {
		sb.WriteString("  " + errorStyle.Render(m.historyErr) + "\n\n")
	}
	if !snap.HasData {
		if m.refreshing {
			sb.WriteString("  " + m.spin.View() + " Loading your detection history…\n")
		} else {
			sb.WriteString(dimStyle.Render("  No history loaded yet. Press r to refresh.") + "\n")
		}
		return sb.String()
	}

	sb.WriteString(m.renderStats(snap.Stats))
	sb.WriteString(m.renderRecentDetections(snap))
	sb.WriteString(m.renderTimeline(snap))
	sb.WriteString(m.renderAdvice(snap))
	return sb.String()
}

func (m Model) renderStats(stats history.Stats) string {
	box := func(title string, value int) string {
		return statBoxStyle.Render(fmt.Sprintf("%d\n%s", value, title))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top,
		box("Total Scans", stats.TotalDetections),
		" ",
		box("Diseased Plants", stats.DiseasedCount),
		" ",
		box("Healthy Plants", stats.HealthyCount),
	)
	return "  " + strings.ReplaceAll(row, "\n", "\n  ") + "\n"
}

func (m Model) renderRecentDetections(snap history.Snapshot) string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Recent Detections (%d total)", len(snap.Records))))
	if len(snap.Records) == 0 {
		sb.WriteString(dimStyle.Render("  No detections yet. Press d to analyze your first leaf photo.") + "\n")
		return sb.String()
	}

	n := len(snap.Records)
	if n > 5 {
		n = 5
	}
	for _, r := range snap.Records[:n] {
		crop := r.Crop
		if crop == "" {
			crop = "Unknown Crop"
		}
		when := r.CreatedAt
		if when == "" {
			when = r.Timestamp
		}
		sb.WriteString(fmt.Sprintf("  %s  %s  %s  %s\n",
			diseaseBadge(r.Disease),
			dimStyle.Render(crop),
			confidencePercent(r.Confidence),
			timeStyle.Render(when),
		))
	}
	return sb.String()
}

func (m Model) renderTimeline(snap history.Snapshot) string {
	var sb strings.Builder
	sb.WriteString(heading("Activity Timeline"))
	if len(snap.Timeline) == 0 {
		sb.WriteString(dimStyle.Render("  (no activity yet)") + "\n")
		return sb.String()
	}

	for _, item := range snap.Timeline {
		ts := timeStyle.Render(item.Timestamp)
		if item.IsDetection() {
			crop := item.Crop
			if crop == "" {
				crop = "Unknown Crop"
			}
			sb.WriteString(fmt.Sprintf("  %s  %s — %s  %s\n",
				ts, crop, diseaseBadge(item.Disease), confidencePercent(item.Confidence)))
		} else {
			sb.WriteString(fmt.Sprintf("  %s  %s\n", ts, item.Description))
		}
	}
	return sb.String()
}

func (m Model) renderAdvice(snap history.Snapshot) string {
	last, ok := history.LastDetectionAdvice(snap.Records)
	if !ok {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(heading("Last Disease Suggestion"))
	detail := fmt.Sprintf("Last detected: %s on %s (%s confidence)",
		last.Disease, last.Crop, confidencePercent(last.Confidence))
	body := detail + "\n" + labelStyle.Render("Treatment: ") + last.Treatment
	sb.WriteString("  " + strings.ReplaceAll(adviceBoxStyle.Render(body), "\n", "\n  ") + "\n")
	return sb.String()
}

// ── Detect ─────────────────

func (m Model) renderDetect() string {
	var sb strings.Builder
	sb.WriteString(heading("Disease Detection"))
	sb.WriteString("  " + m.pathInput.View() + "\n\n")

	if img, ok := m.flow.Pending(); ok {
		sb.WriteString(labelStyle.Render("  Selected: ") + img.Filename +
			dimStyle.Render(fmt.Sprintf("  (%s, %d bytes encoded)", img.Format(), len(img.Payload))) + "\n")
	} else {
		sb.WriteString(dimStyle.Render("  Select a leaf photo to get started.") + "\n")
	}

	switch m.flow.State() {
	case detect.StateAnalyzing:
		sb.WriteString("\n  " + m.spin.View() + " Analyzing…\n")
	case detect.StateSucceeded:
		if res, ok := m.flow.Result(); ok {
			sb.WriteString(heading("Analysis Results"))
			verdict := "Disease detected in your crop."
			if history.IsHealthyLabel(res.Disease) {
				verdict = "Your crop appears to be healthy!"
			}
			sb.WriteString("  " + diseaseBadge(res.Disease) + "  " + confidencePercent(res.Confidence) + "\n")
			sb.WriteString("  " + dimStyle.Render(verdict) + "\n")
			if res.Crop != "" {
				sb.WriteString(labelStyle.Render("  Crop: ") + res.Crop + "\n")
			}
			if res.Treatment != "" {
				sb.WriteString(labelStyle.Render("  Treatment: ") + res.Treatment + "\n")
			}
		}
	case detect.StateFailed:
		sb.WriteString("\n  " + errorStyle.Render(m.flow.Err()) + "\n")
		sb.WriteString(dimStyle.Render("  The selected image is kept; press ctrl+a to retry.") + "\n")
	}

	if m.notice != "" {
		sb.WriteString("\n  " + noticeStyle.Render(m.notice) + "\n")
	}
	return sb.String()
}
