package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Drive   DriveCommand   `command:"drive" description:"Drive the robot from the keyboard with live distance readout"`
	Monitor MonitorCommand `command:"monitor" alias:"mon" description:"Watch the ultrasonic rangefinder"`
	Setup   SetupCommand   `command:"setup" description:"Configure the motor board, wiring polarity and sensor pins"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "RaspTank - tracked robot control CLI"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
