package main

import (
	"fmt"
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/andreapede/adeept-rasptank2/pkg/hardware"
	"github.com/andreapede/adeept-rasptank2/pkg/robot"
	"github.com/andreapede/adeept-rasptank2/pkg/ultrasound"
)

type MonitorCommand struct {
	Rate float64 `long:"rate" description:"Sampling rate in Hz (default from rasptank.json)"`
}

const (
	monitorHeaderHeight = 2
	monitorFooterHeight = 4
	monitorBorderSize   = 2
)

type monitorModel struct {
	cfg      *robot.Config
	readings <-chan ultrasound.Reading
	chart    *streamlinechart.Model

	width, height int
	quitting      bool

	distance float64
	count    int
	min, max float64
}

func initialMonitorModel(cfg *robot.Config, readings <-chan ultrasound.Reading) monitorModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(0, hardware.MaxDistanceCm),
	)
	chart.SetDataSetStyles(distanceDataSet, runes.ThinLineStyle, okStyle)

	return monitorModel{
		cfg:      cfg,
		readings: readings,
		chart:    &chart,
		distance: ultrasound.ErrorDistance,
		min:      hardware.MaxDistanceCm,
	}
}

func (m *monitorModel) resizeChart() {
	if m.width == 0 || m.height == 0 {
		return
	}
	w := m.width - monitorBorderSize - 2
	if w < 40 {
		w = 40
	}
	h := m.height - monitorHeaderHeight - monitorFooterHeight - monitorBorderSize
	if h < 8 {
		h = 8
	}
	m.chart.Resize(w, h)
}

func (m monitorModel) Init() tea.Cmd {
	return waitForReading(m.readings)
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case readingMsg:
		m.distance = msg.Distance
		m.count++
		if msg.Distance < m.min {
			m.min = msg.Distance
		}
		if msg.Distance > m.max {
			m.max = msg.Distance
		}
		m.chart.PushDataSet(distanceDataSet, msg.Distance)
		m.chart.DrawAll()
		return m, waitForReading(m.readings)
	}

	return m, nil
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Monitor stopped.\n"
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("RaspTank Rangefinder"))
	sb.WriteString(statusStyle.Render(fmt.Sprintf("  %d samples", m.count)))
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	status := statusStyle.Render("waiting for first reading...")
	if m.distance >= 0 {
		s := fmt.Sprintf("%.2f cm  (min %.2f, max %.2f)", m.distance, m.min, m.max)
		switch {
		case m.distance <= m.cfg.Ultrasonic.CriticalCm:
			status = criticalStyle.Render(s + "  CRITICAL")
		case m.distance <= m.cfg.Ultrasonic.WarningCm:
			status = warnStyle.Render(s + "  warning")
		default:
			status = okStyle.Render(s)
		}
	}
	sb.WriteString(status)
	sb.WriteString("\n")
	sb.WriteString(statusStyle.Render("Press 'q' to quit"))
	sb.WriteString("\n")

	return sb.String()
}

func (c *MonitorCommand) Execute(args []string) error {
	cfg, err := robot.LoadConfig()
	if err != nil {
		cfg = robot.DefaultConfig()
		log.Printf("No %s, using default pins (%s/%s)", robot.DefaultConfigFile,
			cfg.Ultrasonic.TriggerPin, cfg.Ultrasonic.EchoPin)
	}

	sensor, err := hardware.OpenHCSR04(cfg.Ultrasonic.TriggerPin, cfg.Ultrasonic.EchoPin)
	if err != nil {
		log.Fatalf("Failed to open rangefinder: %v", err)
	}

	mon := ultrasound.NewMonitor(sensor)
	defer mon.Stop()

	readings := make(chan ultrasound.Reading, 1)
	mon.SetCallback(func(r ultrasound.Reading) {
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

	rate := c.Rate
	if rate <= 0 {
		rate = cfg.Ultrasonic.RateHz
	}
	if rate <= 0 {
		rate = ultrasound.DefaultRateHz
	}
	if err := mon.StartContinuous(rate); err != nil {
		log.Fatalf("Failed to start monitor: %v", err)
	}

	p := tea.NewProgram(initialMonitorModel(cfg, readings), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}

	return nil
}
