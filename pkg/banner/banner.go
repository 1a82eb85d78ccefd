package banner

import (
	"fmt"
)

const banner = `
██╗  ██╗████████╗████████╗██████╗ ██╗    ██╗██╗██████╗ ███████╗
██║  ██║╚══██╔══╝╚══██╔══╝██╔══██╗██║    ██║██║██╔══██╗██╔════╝
███████║   ██║      ██║   ██████╔╝██║ █╗ ██║██║██████╔╝█████╗
██╔══██║   ██║      ██║   ██╔═══╝ ██║███╗██║██║██╔══██╗██╔══╝
██║  ██║   ██║      ██║   ██║     ╚███╔███╔╝██║██║  ██║███████╗
╚═╝  ╚═╝   ╚═╝      ╚═╝   ╚═╝      ╚══╝╚══╝ ╚═╝╚═╝  ╚═╝╚══════╝
`

// Print writes the startup banner with effective settings to stdout.
func Print(url, source, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Target:   %s\n", url)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Printf("Config:   %s\n", source)
	fmt.Println("\n== Examples ===================================================")
	fmt.Println("httpwire -url http://example.com/ -H 'Host: example.com'")
	fmt.Println("httpwire -url unix:///var/run/app.sock -H 'Host: localhost'")
	fmt.Println("httpwire -url http://localhost:8080/api -method POST \\")
	fmt.Println("         -H 'Content-Type: application/json' -H 'Content-Length: 15' \\")
	fmt.Println("         -data '{\"key\":\"value\"}'")
	fmt.Println()
}
