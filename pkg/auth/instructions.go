package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowTokenGuide explains where the two credentials come from
func ShowTokenGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "RDTAGGER CREDENTIALS")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 1: Raindrop.io test token")
	fmt.Fprintln(w, "   - Open https://app.raindrop.io/settings/integrations")
	fmt.Fprintln(w, "   - Under 'For Developers' click 'Create new app'")
	fmt.Fprintln(w, "   - Open the app and click 'Create test token'")
	fmt.Fprintln(w, "   - The token has full access to your own account only")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 2: AI service key")
	fmt.Fprintln(w, "   - Any OpenAI-compatible chat completions endpoint works")
	fmt.Fprintln(w, "   - The default is DeepSeek: https://platform.deepseek.com/api_keys")
	fmt.Fprintln(w, "   - Not needed for --dry-run")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 3: Save them")
	fmt.Fprintln(w, "   rdtagger auth login")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "   or export them for a single shell:")
	fmt.Fprintf(w, "   export %s=...\n", EnvRaindropToken)
	fmt.Fprintf(w, "   export %s=...\n", EnvAIKey)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Never commit either value. Saved credentials go to the system")
	fmt.Fprintln(w, "keychain when available, otherwise to an encrypted file.")
	fmt.Fprintln(w, rule)
}
