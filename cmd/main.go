/*
Copyright 2025 Bengaluru Travel Planner Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	planner "github.com/suyogupta/bengaluru-travel-planner"
	"github.com/suyogupta/bengaluru-travel-planner/config"
	"github.com/suyogupta/bengaluru-travel-planner/internal/notification"
)

// TravelPlanner represents the CLI application, encapsulating the root Cobra command.
type TravelPlanner struct {
	cmd *cobra.Command
}

// plannerInstance holds the Planner instance and its configuration, shared by
// the server and worker commands.
type plannerInstance struct {
	planner *planner.Planner
	cnf     *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun sets up the configuration and initializes the Planner instance before
// running any command.
func preRun(app *plannerInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("planner.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newPlanner, err := planner.NewPlanner()
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.planner = newPlanner
		app.cnf = cnf

		return nil
	}
}

// NewCLI creates the command-line interface for the travel planner service.
// It sets up the root command and the server and worker subcommands.
func NewCLI() *TravelPlanner {
	var configFile string
	p := &plannerInstance{}

	var rootCmd = &cobra.Command{
		Use:   "planner",
		Short: "Bengaluru travel planner with Cardano payments",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./planner.json", "Configuration file for the travel planner")

	rootCmd.PersistentPreRunE = preRun(p)

	rootCmd.AddCommand(serverCommands(p))
	rootCmd.AddCommand(workerCommands(p))

	return &TravelPlanner{cmd: rootCmd}
}

// executeCLI runs the root command, handling any errors that occur during execution.
func (w TravelPlanner) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
