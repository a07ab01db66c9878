// Command admin-token mints a bearer token for the office admin endpoints.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	appconfig "github.com/cappsac/capps-site/internal/config"
	httpmiddleware "github.com/cappsac/capps-site/internal/http/middleware"
)

func main() {
	_ = godotenv.Load()
	subject := flag.String("sub", "office", "token subject, usually the staff member's email")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	cfg := appconfig.Load()
	token, err := httpmiddleware.IssueAdminToken(cfg.AdminJWTSecret, *subject, *ttl, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
