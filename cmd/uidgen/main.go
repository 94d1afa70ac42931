package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/config"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/identity"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/rooms"
)

// uidgen prints the provider-facing credentials for a username so an
// operator can smoke-test the webhooks with curl.
func main() {
	var (
		username   = flag.String("user", "", "username to encode")
		sitePrefix = flag.String("site", "mxm", "3-character site prefix")
		sitesFile  = flag.String("sites", "", "optional sites.yaml")
	)
	flag.Parse()

	if *username == "" {
		fmt.Fprintln(os.Stderr, "usage: uidgen -user PLAYER0101 [-site mxm] [-sites sites.yaml]")
		os.Exit(2)
	}

	reg, err := config.LoadSites(*sitesFile, *sitePrefix)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load sites:", err)
		os.Exit(1)
	}
	site, ok := reg.Lookup(*sitePrefix)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown site prefix %q\n", *sitePrefix)
		os.Exit(1)
	}

	uid := identity.EncodeUID(*username, site)
	token := identity.Token(*username, site)

	fmt.Printf("site:           %s (%s)\n", site.Prefix, site.Name)
	fmt.Printf("uid:            %s\n", uid)
	fmt.Printf("token:          %s\n", token)
	fmt.Printf("session token:  %s\n", identity.SessionToken(uid, site))
	fmt.Printf("sample bet_uid: %s\n", uuid.NewString())
	fmt.Println("rooms:")
	for _, room := range rooms.Default().All() {
		fmt.Printf("  %d  %-10s min %6d  max %6d\n", room.ID, room.Name, room.MinBet, room.MaxBet)
	}
}
