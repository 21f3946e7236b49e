package common

import (
	"fmt"
	"path/filepath"
	"strings"
)

// --------------------------------------------------------------------------
// Broker configuration struct
// --------------------------------------------------------------------------

// BrokerConfig holds the parameters used to start a broker from the
// command line.
type BrokerConfig struct {
	// Name is the base name of the snapshot files
	Name string

	// Seed of the broker's random source, 0 means a fresh random seed
	Seed uint64

	// HandleSignals installs the SIGINT handler
	HandleSignals bool

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *BrokerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Broker")
	addField("Name", c.Name)
	if c.Seed == 0 {
		addField("Seed", "random")
	} else {
		addField("Seed", fmt.Sprintf("%d", c.Seed))
	}
	addField("Handle Signals", fmt.Sprintf("%t", c.HandleSignals))

	base := strings.TrimSuffix(c.Name, filepath.Ext(c.Name))
	addSection("Snapshot")
	addField("Binary", base+"-db.dat")
	addField("Text", base+"-db.txt")

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
