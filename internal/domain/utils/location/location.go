package location

import (
	"fmt"
	"time"
)

// Location is the zone used to read allowed delivery windows. It stays time.Local
// until Load is called with the configured timezone.
var Location = time.Local

// Load resolves name and stores it as the package location. An empty name keeps time.Local.
func Load(name string) (*time.Location, error) {
	if name == "" {
		return Location, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("error while load time location %q: %w", name, err)
	}
	Location = loc
	return loc, nil
}
