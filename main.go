// Command ruledns is a rule-based DNS forwarding proxy.
package main

import "github.com/rafalfr/ruledns/internal/cmd"

func main() {
	cmd.Main()
}
