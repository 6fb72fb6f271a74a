// Package display renders command results for humans or machines.
package display

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/stubgen/errors"
)

// OutputEnv selects JSON output for every command when set to "json".
const OutputEnv = "STUBGEN_OUTPUT"

// ShouldOutputJSON reports whether cmd should print JSON: an explicit
// --json flag wins, otherwise OutputEnv decides.
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd != nil && cmd.Flags().Lookup("json") != nil && cmd.Flags().Changed("json") {
		jsonFlag, _ := cmd.Flags().GetBool("json")
		return jsonFlag
	}
	return os.Getenv(OutputEnv) == "json"
}

// MarshalJSON formats v as indented JSON.
func MarshalJSON(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// OutputJSON prints v as indented JSON on stdout.
func OutputJSON(v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}
	fmt.Println(string(data))
	return nil
}
