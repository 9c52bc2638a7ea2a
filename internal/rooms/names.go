package rooms

import (
	"fmt"
	"math/rand"
)

var teamAdjectives = []string{
	"Based", "Dank", "Poggers", "Gigachad", "Sigma", "Zoomer", "Boomer",
	"Big Brain", "Smol Brain", "Sussy", "Bussin", "Sheesh", "No Cap",
	"Cursed", "Blessed", "Stonks", "Feral", "Cozy", "Turbo", "Silent",
}

var teamNouns = []string{
	"Gamers", "Squad", "Gang", "Crew", "Legends", "Heroes", "Champions",
	"Warriors", "Masters", "Memers", "Kings", "Queens", "Bros", "Homies",
	"Nerds", "Geeks", "Pros", "Noobs", "Trolls", "Wizards",
}

// teamNames returns n distinct generated team names.
func teamNames(n int) []string {
	used := make(map[string]bool, n)
	names := make([]string, 0, n)
	for len(names) < n {
		name := fmt.Sprintf("%s %s",
			teamAdjectives[rand.Intn(len(teamAdjectives))],
			teamNouns[rand.Intn(len(teamNouns))])
		if used[name] {
			continue
		}
		used[name] = true
		names = append(names, name)
	}
	return names
}
