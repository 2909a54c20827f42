package banner

import (
	"fmt"

	"lostfound/pkg/config"
)

const banner = `
██╗      ██████╗ ███████╗████████╗ ██╗███████╗ ██████╗ ██╗   ██╗███╗   ██╗██████╗
██║     ██╔═══██╗██╔════╝╚══██╔══╝ ██║██╔════╝██╔═══██╗██║   ██║████╗  ██║██╔══██╗
██║     ██║   ██║███████╗   ██║  ████║█████╗  ██║   ██║██║   ██║██╔██╗ ██║██║  ██║
██║     ██║   ██║╚════██║   ██║ ██╔██║██╔══╝  ██║   ██║██║   ██║██║╚██╗██║██║  ██║
███████╗╚██████╔╝███████║   ██║ ███████║      ╚██████╔╝╚██████╔╝██║ ╚████║██████╔╝
╚══════╝ ╚═════╝ ╚══════╝   ╚═╝ ╚══════╝       ╚═════╝  ╚═════╝ ╚═╝  ╚═══╝╚═════╝
`

// Print prints the startup banner with the effective configuration.
func Print(eff config.EffectiveConfigResult, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", eff.Addr)
	fmt.Printf("DB Path:  %s\n", eff.DBPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Printf("Config sources: %s\n", eff.Source)
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("GET  /api/messages/{lostItemID}/{foundItemID} - conversation for an item pair")
	fmt.Println("POST /api/messages - send a message (multipart: senderID, pair ids, content, image?)")
	fmt.Println("POST /api/chat/resolve - settle a claim (confirm/reject)")
	fmt.Println("GET  /api/notifications/{userID} - notification feed")
	fmt.Println("GET  /api/items - lost/found reports (type/status/search filters)")
	fmt.Println("Docs at /docs/, metrics at /metrics")
}
