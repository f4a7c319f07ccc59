package app

import (
	"time"

	"github.com/saravenpi/milkyway/internal/backend"
	"github.com/saravenpi/milkyway/internal/models"
	"github.com/saravenpi/milkyway/internal/session"
)

// DemoPassword is shared by the two demo accounts, "alice" and "bob".
const DemoPassword = "milkyway"

// NewDemoBackend returns an in-memory backend with two participants and a
// short conversation spanning yesterday and today.
func NewDemoBackend(store *session.Store, now time.Time) *backend.Memory {
	mem := backend.NewMemory(CredentialsFrom(store))
	alice := mem.AddUser("alice", DemoPassword, "Exploring the milky way")
	bob := mem.AddUser("bob", DemoPassword, "Out stargazing")

	yesterday := now.Add(-24 * time.Hour).Unix()
	mem.Seed(bob, "Did you see the meteor shower?", nil, yesterday)
	mem.Seed(alice, "Only the tail end, it was cloudy here", nil, yesterday+60)
	mem.Seed(bob, "", models.MediaFromURL("https://images.example.com/perseids.jpg"), yesterday+120)
	mem.Seed(alice, "Good morning!", nil, now.Add(-time.Hour).Unix())
	return mem
}
