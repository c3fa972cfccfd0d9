package main

import (
	"fmt"
	"log"
	"os"

	"github.com/hivectl/backend/pkg/utils/keygen"
	flag "github.com/spf13/pflag"
)

// keygen prints fresh access tokens as HIVECTL_* environment lines, ready to
// be appended to a .env file.
func main() {
	size := flag.IntP("bytes", "b", 32, "random bytes per token")
	flag.Parse()

	if *size < 16 {
		log.Fatalf("token size must be at least 16 bytes, got %d", *size)
	}

	for _, name := range []string{"HIVECTL_AUTH_ADMIN_API_KEY", "HIVECTL_AUTH_OPERATOR_API_KEY", "HIVECTL_AUTH_AGENT_TOKEN"} {
		token, err := keygen.GenerateHexID(*size)
		if err != nil {
			log.Fatalf("failed to generate %s: %v", name, err)
		}
		fmt.Fprintf(os.Stdout, "%s=%s\n", name, token)
	}
}
