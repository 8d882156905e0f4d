// LISE tray companion - system tray status for the bench agent.
//
// A lightweight tray application that polls the local agent's HTTP API
// and offers quick actions: open the console, stop the running
// scenario, quit.
//
// Build for Windows without a console window:
//
//	GOOS=windows go build -ldflags "-H=windowsgui" ./cmd/lise-tray
package main

func main() {
	runTray()
}
