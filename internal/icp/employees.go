package icp

// ParseMaxEmployeeCount extracts the largest integer embedded in a free-text
// company-size descriptor. "501-1000 Employees" parses as 1000; a value with
// no digits reports ok=false rather than an error, and the size criterion
// simply does not match.
func ParseMaxEmployeeCount(s string) (int, bool) {
	max := 0
	found := false

	current := 0
	inRun := false
	flush := func() {
		if inRun {
			if !found || current > max {
				max = current
			}
			found = true
			current = 0
			inRun = false
		}
	}

	for _, r := range s {
		if r >= '0' && r <= '9' {
			current = current*10 + int(r-'0')
			inRun = true
			continue
		}
		flush()
	}
	flush()

	return max, found
}
