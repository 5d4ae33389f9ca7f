package main

import (
	"math"
	"math/rand"
)

// Role represents a player's hidden role for one game.
type Role string

const (
	RoleDoctor           Role = "DOCTOR"
	RoleAlly             Role = "ALLY"
	RoleEnemy            Role = "ENEMY"
	RoleHeartbrokenAlly  Role = "HEARTBROKEN_ALLY"
	RoleHeartbrokenEnemy Role = "HEARTBROKEN_ENEMY"
)

const heartbrokenChance = 0.7

// assignRoles builds a shuffled role list for numPlayers:
//   - exactly one doctor
//   - at most one heartbroken (ally or enemy variant, only with 3+ players)
//   - remaining slots split between allies and enemies, enemies being
//     roughly a third of the remainder but never zero
//
// Fewer than two players is a degenerate input and yields all allies.
func assignRoles(numPlayers int) []Role {
	if numPlayers < 2 {
		roles := make([]Role, numPlayers)
		for i := range roles {
			roles[i] = RoleAlly
		}
		return roles
	}

	roles := []Role{RoleDoctor}

	hasHeartbroken := rand.Float64() < heartbrokenChance && numPlayers >= 3

	remaining := numPlayers - 1
	if hasHeartbroken {
		remaining--
	}

	numEnemies := int(math.Round(float64(remaining) / 3))
	if numEnemies < 1 {
		numEnemies = 1
	}
	numAllies := remaining - numEnemies

	for i := 0; i < numAllies; i++ {
		roles = append(roles, RoleAlly)
	}
	for i := 0; i < numEnemies; i++ {
		roles = append(roles, RoleEnemy)
	}

	if hasHeartbroken {
		if rand.Float64() < 0.5 {
			roles = append(roles, RoleHeartbrokenAlly)
		} else {
			roles = append(roles, RoleHeartbrokenEnemy)
		}
	}

	rand.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	return roles
}

// baseRole collapses heartbroken variants onto their team. The doctor
// belongs to no team and maps to itself.
func baseRole(role Role) Role {
	switch role {
	case RoleAlly, RoleHeartbrokenAlly:
		return RoleAlly
	case RoleEnemy, RoleHeartbrokenEnemy:
		return RoleEnemy
	}
	return role
}

func isHeartbroken(role Role) bool {
	return role == RoleHeartbrokenAlly || role == RoleHeartbrokenEnemy
}

const (
	colorDoctor  = "#4CAF50" // green
	colorAlly    = "#2196F3" // blue
	colorEnemy   = "#F44336" // red
	colorUnknown = "#9E9E9E" // gray
	colorSick    = "#FFC107" // amber
)

// roleInfo builds the private role payload for one player.
func roleInfo(role Role, sick bool) RoleInfo {
	var color string
	switch baseRole(role) {
	case RoleDoctor:
		color = colorDoctor
	case RoleAlly:
		color = colorAlly
	case RoleEnemy:
		color = colorEnemy
	default:
		color = colorUnknown
	}

	info := RoleInfo{
		Role:          string(role),
		BaseRole:      string(baseRole(role)),
		IsHeartbroken: isHeartbroken(role),
		Color:         color,
	}
	if sick {
		info.StatusColor = colorSick
	}

	return info
}

// countAliveTeamMembers tallies living (alive or sick) players per team.
// The doctor counts for neither side.
func countAliveTeamMembers(players []*Player) (allies, enemies int) {
	for _, p := range players {
		if p.Status != StatusAlive && p.Status != StatusSick {
			continue
		}
		switch baseRole(p.Role) {
		case RoleAlly:
			allies++
		case RoleEnemy:
			enemies++
		}
	}
	return allies, enemies
}
