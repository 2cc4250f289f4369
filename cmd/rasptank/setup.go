package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/andreapede/adeept-rasptank2/pkg/drive"
	"github.com/andreapede/adeept-rasptank2/pkg/hardware"
	"github.com/andreapede/adeept-rasptank2/pkg/robot"
	"github.com/andreapede/adeept-rasptank2/pkg/ultrasound"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type SetupCommand struct{}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("RaspTank Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━"))
	fmt.Println()

	cfg := robot.DefaultConfig()
	if existing, err := robot.LoadConfig(); err == nil {
		cfg = existing
		fmt.Printf("Loaded existing %s, values prefilled.\n\n", robot.DefaultConfigFile)
	}

	// Step 1: bus and pins
	askWiring(cfg)

	// Step 2: wiggle each track and confirm polarity
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Motor polarity ━━━"))
	fmt.Println()
	checkPolarity(cfg)

	if err := cfg.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	// Step 3: tracking offsets
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Tracking offsets ━━━"))
	fmt.Println()
	askOffsets(cfg)

	// Step 4: sanity-read the rangefinder
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Rangefinder check ━━━"))
	fmt.Println()
	checkRangefinder(cfg)

	if err := cfg.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	printSummary(cfg)
	fmt.Printf("Configuration saved to %s\n", robot.DefaultConfigFile)
	fmt.Println()
	fmt.Println("Start driving with: " + headerStyle.Render("rasptank drive"))

	return nil
}

func askWiring(cfg *robot.Config) {
	addr := fmt.Sprintf("0x%02x", cfg.Motors.I2CAddr)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("I2C bus").
				Description("Empty picks the first available bus").
				Value(&cfg.Motors.I2CBus),
			huh.NewInput().
				Title("PCA9685 address").
				Description("The Adeept HAT straps the chip to 0x5f").
				Value(&addr).
				Validate(validateHexAddr),
			huh.NewInput().
				Title("Ultrasonic trigger pin").
				Value(&cfg.Ultrasonic.TriggerPin),
			huh.NewInput().
				Title("Ultrasonic echo pin").
				Value(&cfg.Ultrasonic.EchoPin),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	parsed, _ := strconv.ParseUint(addr, 0, 16)
	cfg.Motors.I2CAddr = uint16(parsed)
}

func validateHexAddr(s string) error {
	if _, err := strconv.ParseUint(s, 0, 16); err != nil {
		return fmt.Errorf("not a valid address (use e.g. 0x5f)")
	}
	return nil
}

// checkPolarity nudges each track forward and asks which way it actually
// moved, recording the direction multiplier that makes positive throttle
// mean forward.
func checkPolarity(cfg *robot.Config) {
	bank, err := hardware.OpenMotorBank(hardware.BankConfig{
		Bus:         cfg.Motors.I2CBus,
		Addr:        cfg.Motors.I2CAddr,
		FrequencyHz: cfg.Motors.FrequencyHz,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening motor bank: %v\n", err)
		os.Exit(1)
	}
	defer bank.Close()

	tracks := []struct {
		ch   drive.Channel
		name string
	}{
		{drive.RightMotor, "right"},
		{drive.LeftMotor, "left"},
	}

	for _, track := range tracks {
		motor, err := bank.Motor(int(track.ch))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error binding motor: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("  Nudging the %s track...\n", track.name)
		if err := motor.SetThrottle(0.4); err != nil {
			fmt.Fprintf(os.Stderr, "Error driving motor: %v\n", err)
			os.Exit(1)
		}
		time.Sleep(600 * time.Millisecond)
		motor.SetThrottle(0)

		var answer string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(fmt.Sprintf("Which way did the %s track move?", track.name)).
					Options(
						huh.NewOption("Forward", "forward"),
						huh.NewOption("Backward", "backward"),
						huh.NewOption("It didn't move", "none"),
					).
					Value(&answer),
			),
		)
		if err := form.Run(); err != nil {
			fmt.Println()
			os.Exit(0)
		}

		trim := cfg.Motors.Trims[track.ch]
		switch answer {
		case "forward":
			trim.Direction = 1
		case "backward":
			trim.Direction = -1
		case "none":
			fmt.Printf("  Check the %s motor wiring and run setup again.\n", track.name)
			os.Exit(1)
		}
		cfg.Motors.Trims[track.ch] = trim
	}
}

func askOffsets(cfg *robot.Config) {
	left := strconv.Itoa(cfg.Motors.Trims[drive.LeftMotor].Offset)
	right := strconv.Itoa(cfg.Motors.Trims[drive.RightMotor].Offset)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Left track offset").
				Description("Percent points added during line tracking to run straight").
				Value(&left).
				Validate(validateOffset),
			huh.NewInput().
				Title("Right track offset").
				Value(&right).
				Validate(validateOffset),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	l, _ := strconv.Atoi(left)
	r, _ := strconv.Atoi(right)
	trimL := cfg.Motors.Trims[drive.LeftMotor]
	trimL.Offset = l
	cfg.Motors.Trims[drive.LeftMotor] = trimL
	trimR := cfg.Motors.Trims[drive.RightMotor]
	trimR.Offset = r
	cfg.Motors.Trims[drive.RightMotor] = trimR
}

func validateOffset(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("not a number")
	}
	if v < -50 || v > 50 {
		return fmt.Errorf("offset out of range (-50..50)")
	}
	return nil
}

func checkRangefinder(cfg *robot.Config) {
	sensor, err := hardware.OpenHCSR04(cfg.Ultrasonic.TriggerPin, cfg.Ultrasonic.EchoPin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening rangefinder: %v\n", err)
		os.Exit(1)
	}

	mon := ultrasound.NewMonitor(sensor)
	defer mon.Stop()

	ok := 0
	for i := 0; i < 3; i++ {
		d := mon.GetSingleReading()
		if d >= 0 {
			fmt.Printf("  Reading %d: %.2f cm\n", i+1, d)
			ok++
		} else {
			fmt.Printf("  Reading %d: failed\n", i+1)
		}
		time.Sleep(200 * time.Millisecond)
	}

	if ok == 0 {
		fmt.Println(dimStyle.Render("  All readings failed; check the sensor wiring. Saving config anyway."))
	}
}

func printSummary(cfg *robot.Config) {
	rows := [][]string{
		{"I2C bus", orDefault(cfg.Motors.I2CBus, "(first available)")},
		{"PCA9685 address", fmt.Sprintf("0x%02x", cfg.Motors.I2CAddr)},
		{"PWM frequency", fmt.Sprintf("%d Hz", cfg.Motors.FrequencyHz)},
		{"Right trim", trimString(cfg.Motors.Trims[drive.RightMotor])},
		{"Left trim", trimString(cfg.Motors.Trims[drive.LeftMotor])},
		{"Trigger / echo", cfg.Ultrasonic.TriggerPin + " / " + cfg.Ultrasonic.EchoPin},
		{"Sample rate", fmt.Sprintf("%.1f Hz", cfg.Ultrasonic.RateHz)},
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Rows(rows...)
	fmt.Println(t.Render())
}

func trimString(trim drive.Trim) string {
	dir := "normal"
	if trim.Direction < 0 {
		dir = "reversed"
	}
	return fmt.Sprintf("%s, offset %+d", dir, trim.Offset)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
