package stats

import (
	"fmt"
	"strconv"
	"strings"
)

// maxBlockSpecEntries caps the fan-out of a single stats_hashrate call.
const maxBlockSpecEntries = 256

// ParseBlockSpec expands a block-number specifier into an ordered list.
// The grammar accepts a single number ("42"), a comma list ("1,5,9") and
// inclusive ranges ("100-103"), in any combination. An empty specifier
// yields a single nil entry, which callers resolve to the current epoch.
func ParseBlockSpec(spec string) ([]*uint64, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return []*uint64{nil}, nil
	}

	var blocks []*uint64
	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			return nil, fmt.Errorf("%w: empty entry in block specifier %q", ErrInvalidArgument, spec)
		}

		if lo, hi, ok := splitRange(token); ok {
			start, err := parseBlockNum(lo)
			if err != nil {
				return nil, err
			}
			end, err := parseBlockNum(hi)
			if err != nil {
				return nil, err
			}
			if start > end {
				return nil, fmt.Errorf("%w: descending block range %q", ErrInvalidArgument, token)
			}
			for n := start; n <= end; n++ {
				v := n
				blocks = append(blocks, &v)
				if len(blocks) > maxBlockSpecEntries {
					return nil, fmt.Errorf("%w: block specifier expands past %d entries", ErrInvalidArgument, maxBlockSpecEntries)
				}
			}
			continue
		}

		n, err := parseBlockNum(token)
		if err != nil {
			return nil, err
		}
		v := n
		blocks = append(blocks, &v)
		if len(blocks) > maxBlockSpecEntries {
			return nil, fmt.Errorf("%w: block specifier expands past %d entries", ErrInvalidArgument, maxBlockSpecEntries)
		}
	}
	return blocks, nil
}

func splitRange(token string) (lo, hi string, ok bool) {
	idx := strings.Index(token, "-")
	if idx <= 0 || idx == len(token)-1 {
		return "", "", false
	}
	return token[:idx], token[idx+1:], true
}

func parseBlockNum(s string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: non-numeric block number %q", ErrInvalidArgument, s)
	}
	return n, nil
}
