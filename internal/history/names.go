// SPDX-License-Identifier: MPL-2.0

package history

import "fmt"

// maxNameAttempts bounds random picks before falling back to numbered names.
const maxNameAttempts = 1000

var (
	adjectives = []string{
		"admiring", "agitated", "amazing", "awesome", "bold", "brave", "busy",
		"clever", "confident", "cranky", "curious", "dreamy", "eager", "ecstatic",
		"elegant", "fervent", "focused", "friendly", "gallant", "goofy", "happy",
		"hopeful", "jolly", "keen", "kind", "lucid", "modest", "nostalgic",
		"peaceful", "pensive", "quirky", "serene", "sharp", "silly", "sleepy",
		"stoic", "tender", "trusting", "vibrant", "wizardly", "zealous",
	}

	scientists = []string{
		"agnesi", "babbage", "bohr", "curie", "darwin", "dijkstra", "einstein",
		"euler", "faraday", "fermi", "franklin", "galileo", "gauss", "goodall",
		"hamilton", "hopper", "hypatia", "kepler", "lamarr", "leavitt",
		"lovelace", "maxwell", "mendel", "meitner", "newton", "noether",
		"pasteur", "planck", "ritchie", "sagan", "shannon", "tesla", "thompson",
		"torvalds", "turing", "wiles", "wozniak", "yalow",
	}
)

// nextName returns a random adjective_scientist name for which used reports
// false. pick returns a random int in [0, n).
func nextName(pick func(n int) int, used func(string) bool) string {
	for range maxNameAttempts {
		name := adjectives[pick(len(adjectives))] + "_" + scientists[pick(len(scientists))]
		if !used(name) {
			return name
		}
	}

	base := adjectives[pick(len(adjectives))] + "_" + scientists[pick(len(scientists))]
	for i := 2; ; i++ {
		name := fmt.Sprintf("%s_%d", base, i)
		if !used(name) {
			return name
		}
	}
}
