/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"math/rand/v2"
)

type Role string

const (
	RoleWolf    Role = "wolf"
	RoleCitizen Role = "citizen"
)

// customTopic is the reserved topic key meaning the host supplies the words.
const customTopic = "custom"

// WordPair holds two closely related words. Which one the wolves get is
// decided per game.
type WordPair [2]string

type Topic struct {
	Key   string
	Pairs []WordPair
}

// topics is ordered; the first entry is the default for new rooms and the
// fallback for unrecognised topic keys.
var topics = []Topic{
	{
		Key: "food",
		Pairs: []WordPair{
			{"Curry", "Stew"},
			{"Sushi", "Sashimi"},
			{"Coffee", "Tea"},
		},
	},
	{
		Key: "places",
		Pairs: []WordPair{
			{"Tokyo Tower", "Skytree"},
			{"Ocean", "River"},
			{"School", "Hospital"},
		},
	},
	{
		Key: "actions",
		Pairs: []WordPair{
			{"Running", "Jogging"},
			{"Cooking", "Eating"},
			{"Sleeping", "Napping"},
		},
	},
}

func defaultTopic() string {
	return topics[0].Key
}

func topicKeys() []string {
	keys := make([]string, 0, len(topics)+1)
	for _, t := range topics {
		keys = append(keys, t.Key)
	}

	return append(keys, customTopic)
}

func lookupTopic(key string) Topic {
	for _, t := range topics {
		if t.Key == key {
			return t
		}
	}

	return topics[0]
}

// Random is the subset of *rand.Rand used for dealing. Implementations need
// not be safe for concurrent use unless shared between rooms.
type Random interface {
	IntN(n int) int
}

// globalRandom defers to the math/rand/v2 top-level source, which is safe for
// concurrent use.
type globalRandom struct{}

func (globalRandom) IntN(n int) int {
	return rand.IntN(n)
}

// pickPair returns a uniformly chosen pair from the catalogue entry for key.
func pickPair(rng Random, key string) WordPair {
	t := lookupTopic(key)

	return t.Pairs[rng.IntN(len(t.Pairs))]
}

// customPair validates a host-supplied pair: exactly two words, neither empty.
// Words are kept as sent.
func customPair(words []string) (WordPair, error) {
	if len(words) != 2 {
		return WordPair{}, ErrInvalidCustomWords
	}

	pair := WordPair{words[0], words[1]}
	if pair[0] == "" || pair[1] == "" {
		return WordPair{}, ErrInvalidCustomWords
	}

	return pair, nil
}

// Deal is the outcome of one assignment: roles by player index, plus the
// word handed to each side.
type Deal struct {
	Roles       []Role
	CitizenWord string
	WolfWord    string
}

// WordFor returns the secret word for the player at index i.
func (d Deal) WordFor(i int) string {
	if d.Roles[i] == RoleWolf {
		return d.WolfWord
	}

	return d.CitizenWord
}

// assign builds wolfCount wolves and playerCount-wolfCount citizens, shuffles
// them with Fisher-Yates, and flips the pair with probability one half.
func assign(rng Random, playerCount, wolfCount int, pair WordPair) (Deal, error) {
	if playerCount < minPlayers {
		return Deal{}, ErrInvalidPlayerCount
	}
	if wolfCount < 1 || wolfCount >= playerCount {
		return Deal{}, ErrInvalidWolfCount
	}

	roles := make([]Role, playerCount)
	for i := range roles {
		if i < wolfCount {
			roles[i] = RoleWolf
		} else {
			roles[i] = RoleCitizen
		}
	}

	for i := len(roles) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		roles[i], roles[j] = roles[j], roles[i]
	}

	if rng.IntN(2) == 1 {
		pair[0], pair[1] = pair[1], pair[0]
	}

	return Deal{
		Roles:       roles,
		CitizenWord: pair[0],
		WolfWord:    pair[1],
	}, nil
}
