package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/andreapede/adeept-rasptank2/pkg/drive"
	"github.com/andreapede/adeept-rasptank2/pkg/robot"
	"github.com/andreapede/adeept-rasptank2/pkg/ultrasound"
)

type DriveCommand struct {
	Speed  int     `long:"speed" default:"50" description:"Initial speed (0-100)"`
	Radius float64 `long:"radius" default:"0.6" description:"Curve radius for vision mode (0-1)"`
}

// mixing mode selected in the drive TUI
type driveMode int

const (
	modeTank driveMode = iota
	modeLine
	modeVision
)

func (m driveMode) String() string {
	switch m {
	case modeLine:
		return "line"
	case modeVision:
		return "vision"
	}
	return "tank"
}

// dataset name for the distance trace on the stream charts
const distanceDataSet = "distance"

const (
	driveHeaderHeight = 2 // title + blank line
	driveFooterHeight = 9 // help row + log box
	driveBorderSize   = 2 // chart border
	driveMaxLogs      = 5 // number of log messages to show
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	criticalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

type driveModel struct {
	rob      *robot.Robot
	cfg      *robot.Config
	readings <-chan ultrasound.Reading
	chart    *streamlinechart.Model

	width, height int
	logs          []string
	quitting      bool

	mode     driveMode
	speed    int
	radius   float64
	distance float64
	moving   string
}

type readingMsg ultrasound.Reading

func waitForReading(ch <-chan ultrasound.Reading) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return nil
		}
		return readingMsg(r)
	}
}

func initialDriveModel(rob *robot.Robot, cfg *robot.Config, readings <-chan ultrasound.Reading, speed int, radius float64) driveModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(0, 200),
	)
	chart.SetDataSetStyles(distanceDataSet, runes.ThinLineStyle, okStyle)

	return driveModel{
		rob:      rob,
		cfg:      cfg,
		readings: readings,
		chart:    &chart,
		mode:     modeTank,
		speed:    speed,
		radius:   radius,
		distance: ultrasound.ErrorDistance,
		moving:   "stopped",
	}
}

func (m *driveModel) addLog(msg string) {
	m.logs = append(m.logs, fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), msg))
	if len(m.logs) > driveMaxLogs {
		m.logs = m.logs[len(m.logs)-driveMaxLogs:]
	}
}

func (m *driveModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20
	}
	width = m.width - driveBorderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - driveHeaderHeight - driveFooterHeight - driveBorderSize
	if height < 8 {
		height = 8
	}
	return width, height
}

func (m *driveModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

// command routes a movement intent through the selected mixing mode.
func (m *driveModel) command(dir drive.Direction, turn drive.Turn) {
	var err error
	switch m.mode {
	case modeLine:
		err = m.rob.Drive.TrackingMove(m.speed, dir, turn)
	case modeVision:
		err = m.rob.Drive.VisionTrackingMove(m.speed, dir, turn, m.radius)
	default:
		err = m.rob.Drive.Move(m.speed, dir, turn)
	}
	if err != nil {
		m.addLog(fmt.Sprintf("move failed: %v", err))
		return
	}
	m.moving = fmt.Sprintf("%v %v @ %d%%", dir, turn, m.speed)
}

func (m *driveModel) stop() {
	if err := m.rob.Drive.StopAll(); err != nil {
		m.addLog(fmt.Sprintf("stop failed: %v", err))
		return
	}
	m.moving = "stopped"
}

func (m driveModel) Init() tea.Cmd {
	return waitForReading(m.readings)
}

func (m driveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.stop()
			m.quitting = true
			return m, tea.Quit
		case "up", "w":
			m.command(drive.Forward, drive.Straight)
		case "down", "s":
			m.command(drive.Backward, drive.Straight)
		case "left", "a":
			m.command(drive.Forward, drive.Left)
		case "right", "d":
			m.command(drive.Forward, drive.Right)
		case " ":
			m.stop()
		case "+", "=":
			if m.speed+10 <= drive.MaxSpeed {
				m.speed += 10
			}
		case "-":
			if m.speed-10 >= 10 {
				m.speed -= 10
			}
		case "[":
			if m.radius > 0.05 {
				m.radius -= 0.1
			}
		case "]":
			if m.radius < 0.95 {
				m.radius += 0.1
			}
		case "1":
			m.mode = modeTank
		case "2":
			m.mode = modeLine
		case "3":
			m.mode = modeVision
		}
		return m, nil

	case readingMsg:
		m.distance = msg.Distance
		m.chart.PushDataSet(distanceDataSet, msg.Distance)
		m.chart.DrawAll()
		return m, waitForReading(m.readings)
	}

	return m, nil
}

func (m driveModel) distanceStatus() string {
	if m.distance < 0 {
		return statusStyle.Render("distance: --")
	}
	s := fmt.Sprintf("distance: %.2f cm", m.distance)
	switch {
	case m.distance <= m.cfg.Ultrasonic.CriticalCm:
		return criticalStyle.Render(s + "  CRITICAL")
	case m.distance <= m.cfg.Ultrasonic.WarningCm:
		return warnStyle.Render(s + "  warning")
	}
	return okStyle.Render(s)
}

func (m driveModel) View() string {
	if m.quitting {
		return "Drive stopped.\n"
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("RaspTank Drive"))
	sb.WriteString(statusStyle.Render(fmt.Sprintf("  mode=%v speed=%d radius=%.1f  %s", m.mode, m.speed, m.radius, m.moving)))
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	sb.WriteString(m.distanceStatus())
	sb.WriteString("\n")
	sb.WriteString(statusStyle.Render("arrows/wasd move · space stop · +/- speed · [/] radius · 1 tank 2 line 3 vision · q quit"))
	sb.WriteString("\n")

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4)

	logLines := statusStyle.Render("no messages")
	if len(m.logs) > 0 {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func (c *DriveCommand) Execute(args []string) error {
	cfg, err := robot.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "No configuration found. Run 'rasptank setup' first.")
		os.Exit(1)
	}

	rob, err := robot.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open robot: %v", err)
	}
	defer rob.Close()

	// The monitor callback must not block, so it feeds a buffered channel
	// and drops the oldest reading when the TUI falls behind.
	readings := make(chan ultrasound.Reading, 1)
	rob.Sonar.SetCallback(func(r ultrasound.Reading) {
		select {
		case readings <- r:
		default:
			select {
			case <-readings:
			default:
			}
			readings <- r
		}
	})

	rate := cfg.Ultrasonic.RateHz
	if rate <= 0 {
		rate = ultrasound.DefaultRateHz
	}
	if err := rob.Sonar.StartContinuous(rate); err != nil {
		log.Fatalf("Failed to start distance monitor: %v", err)
	}

	speed := c.Speed
	if speed <= 0 {
		speed = cfg.Motors.DefaultSpeed
	}

	p := tea.NewProgram(initialDriveModel(rob, cfg, readings, speed, c.Radius), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}

	return nil
}
