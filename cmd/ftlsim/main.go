// Command ftlsim runs the flash translation layer wear-leveling simulator.
package main

import "github.com/sarchlab/ftlsim/cmd/ftlsim/cmd"

func main() {
	cmd.Execute()
}
