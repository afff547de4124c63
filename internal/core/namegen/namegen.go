// Package namegen produces display names for spawned entities from
// static word lists keyed by entity kind.
package namegen

import (
	"fmt"
	"math/rand/v2"
)

var firstNames = []string{
	"Aldric", "Branwen", "Cedric", "Darian", "Elara", "Finnian", "Gwen",
	"Hector", "Isolde", "Jareth", "Kael", "Lyra", "Magnus", "Nessa",
	"Orin", "Petra", "Quinlan", "Rowan", "Seren", "Thane", "Uma", "Vex",
	"Wren", "Xander", "Yara", "Zephyr", "Aric", "Brynn", "Cael",
	"Dorian", "Elowen", "Faelan",
}

var lastNames = []string{
	"Ironwood", "Stormwind", "Ashblade", "Nightshade", "Silverbrook",
	"Ravencroft", "Thornheart", "Moonwhisper", "Fireforge", "Frostbane",
	"Starfall", "Shadowmere", "Brightblade", "Darkwater", "Goldhammer",
	"Swiftstrike", "Earthshaker", "Windwalker",
}

var warriorTitles = []string{
	"the Brave", "the Mighty", "Ironheart", "the Defender",
	"Stormbreaker", "the Fearless", "Warbringer", "the Unyielding",
	"Steelborn", "the Valiant",
}

var archerTitles = []string{
	"the Swift", "Eagleeye", "the Precise", "Windrunner", "the Silent",
	"Sharpshot", "the Keen", "Truearrow", "the Watchful", "Swiftwing",
}

var goblinPrefixes = []string{
	"Grik", "Zak", "Nog", "Snik", "Grub", "Mog", "Gob", "Snag", "Krag",
	"Zig", "Dreg", "Slog",
}

var goblinSuffixes = []string{
	"fang", "nail", "shiv", "scurry", "grunt", "snarl", "claw", "snap",
	"bite", "sneak", "lurk", "skulk",
}

var mushroomTypes = []string{
	"Morel", "Chanterelle", "Puffball", "Shimeji", "Oyster", "Shiitake",
	"Portobello", "Enoki", "Maitake", "Trumpet",
}

var chickenNames = []string{
	"Cluck", "Peck", "Feather", "Nugget", "Wing", "Beak", "Drumstick",
	"Rooster", "Hen", "Chick", "Scramble", "Omelet",
}

func pick(list []string) string {
	return list[rand.IntN(len(list))]
}

// Generate returns a name fitting the given kind. Unknown kinds get a
// generic two-part fantasy name, never an error.
func Generate(kind string) string {
	switch kind {
	case "warrior":
		return fmt.Sprintf("%s %s", pick(firstNames), pick(warriorTitles))
	case "archer":
		return fmt.Sprintf("%s %s", pick(firstNames), pick(archerTitles))
	case "goblin":
		return pick(goblinPrefixes) + pick(goblinSuffixes)
	case "skeleton":
		return fmt.Sprintf("Skeletal %s %s", pick(firstNames), pick(lastNames))
	case "mushroom":
		return pick(mushroomTypes) + " Mushroom"
	case "eyebeast":
		return pick(firstNames) + " the Watcher"
	case "chicken":
		return pick(chickenNames)
	case "cat":
		return pick(firstNames) + " the Cat"
	default:
		return fmt.Sprintf("%s %s", pick(firstNames), pick(lastNames))
	}
}
