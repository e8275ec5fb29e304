package validators_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/taskforge-ai/dialoguebot/dialogue/validators"
)

// TestEmailNormalizedFormProperty verifies spec.md §8 "for all emails e:
// is_valid_email(e) ⇒ e == lowercase(strip(e)) after normalization",
// grounded on the teacher's gopter property style (runtime/a2a/retry and
// registry/store/memory use prop.ForAll over generated inputs rather than
// fixed examples).
func TestEmailNormalizedFormProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("an accepted email is always its own lowercased, trimmed form", prop.ForAll(
		func(local, domain, tld string, leadingSpace, upper bool) bool {
			candidate := local + "@" + domain + "." + tld
			if upper {
				candidate = strings.ToUpper(candidate)
			}
			if leadingSpace {
				candidate = "  " + candidate + "  "
			}

			normalized, errMsg := validators.Email(candidate)
			if errMsg != "" {
				return true // rejected candidates have nothing to check
			}
			return normalized == strings.ToLower(strings.TrimSpace(candidate))
		},
		genEmailPart(), genEmailPart(), gen.OneConstOf("com", "org", "io"),
		gen.Bool(), gen.Bool(),
	))

	properties.TestingRun(t)
}

// TestPhoneNormalizedFormProperty verifies spec.md §8's phone property: for
// any input whose stripped digits have length 10, the normalized form
// matches "(DDD) DDD-DDDD"; for length 11 starting with 1, it matches
// "+1 (DDD) DDD-DDDD".
func TestPhoneNormalizedFormProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("10 stripped digits format as (DDD) DDD-DDDD", prop.ForAll(
		func(digits string) bool {
			v, errMsg := validators.Phone(digits)
			if errMsg != "" {
				return false
			}
			want := fmt.Sprintf("(%s) %s-%s", digits[0:3], digits[3:6], digits[6:10])
			return v == want
		},
		genDigitString(10),
	))

	properties.Property("11 stripped digits starting with 1 format as +1 (DDD) DDD-DDDD", prop.ForAll(
		func(digits string) bool {
			candidate := "1" + digits
			v, errMsg := validators.Phone(candidate)
			if errMsg != "" {
				return false
			}
			want := fmt.Sprintf("+1 (%s) %s-%s", digits[0:3], digits[3:6], digits[6:10])
			return v == want
		},
		genDigitString(10),
	))

	properties.TestingRun(t)
}

func genEmailPart() gopter.Gen {
	return gen.OneConstOf("jane", "john.doe", "user123", "a-b-c")
}

func genDigitString(n int) gopter.Gen {
	return gen.SliceOfN(n, gen.IntRange(0, 9)).Map(func(digits []int) string {
		var b strings.Builder
		for _, d := range digits {
			fmt.Fprintf(&b, "%d", d)
		}
		return b.String()
	})
}
