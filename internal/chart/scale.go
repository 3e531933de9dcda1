package chart

import (
	"math"
	"time"
)

// Linear maps a continuous domain onto a pixel range.
type Linear struct {
	D0, D1 float64 // domain
	R0, R1 float64 // range
}

// NewLinear returns a linear scale.
func NewLinear(d0, d1, r0, r1 float64) Linear {
	return Linear{D0: d0, D1: d1, R0: r0, R1: r1}
}

// Map returns the pixel position of v. A degenerate domain maps to the
// middle of the range.
func (s Linear) Map(v float64) float64 {
	if s.D1 == s.D0 {
		return (s.R0 + s.R1) / 2
	}
	return s.R0 + (v-s.D0)/(s.D1-s.D0)*(s.R1-s.R0)
}

// Invert returns the domain value at pixel p.
func (s Linear) Invert(p float64) float64 {
	if s.R1 == s.R0 {
		return s.D0
	}
	return s.D0 + (p-s.R0)/(s.R1-s.R0)*(s.D1-s.D0)
}

// Nice extends the domain to round values for roughly count ticks.
func (s Linear) Nice(count int) Linear {
	start, stop := s.D0, s.D1
	reversed := stop < start
	if reversed {
		start, stop = stop, start
	}
	var prestep float64
loop:
	for iter := 0; iter < 10; iter++ {
		step := tickIncrement(start, stop, float64(count))
		switch {
		case step == prestep:
			break loop
		case step > 0:
			start = math.Floor(start/step) * step
			stop = math.Ceil(stop/step) * step
		case step < 0:
			start = math.Ceil(start*step) / step
			stop = math.Floor(stop*step) / step
		default:
			break loop
		}
		prestep = step
	}
	if reversed {
		start, stop = stop, start
	}
	s.D0, s.D1 = start, stop
	return s
}

// Ticks returns round tick values inside the domain.
func (s Linear) Ticks(count int) []float64 {
	return ticks(s.D0, s.D1, float64(count))
}

// ticks returns approximately count round values between start and stop.
func ticks(start, stop, count float64) []float64 {
	if !(count > 0) {
		return nil
	}
	if start == stop {
		return []float64{start}
	}
	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}
	i1, i2, inc := tickSpec(start, stop, count)
	if !(i2 >= i1) {
		return nil
	}
	n := int(i2 - i1 + 1)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if inc < 0 {
			out[i] = (i1 + float64(i)) / -inc
		} else {
			out[i] = (i1 + float64(i)) * inc
		}
		if out[i] == 0 {
			out[i] = 0
		}
	}
	if reverse {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// tickSpec picks a 1, 2, 5 or 10 multiple of a power of ten as the step.
// A negative inc means the step is 1/-inc, which keeps small steps exact.
func tickSpec(start, stop, count float64) (i1, i2, inc float64) {
	step := (stop - start) / math.Max(0, count)
	power := math.Floor(math.Log10(step))
	e := step / math.Pow(10, power)
	factor := 1.0
	switch {
	case e >= e10:
		factor = 10
	case e >= e5:
		factor = 5
	case e >= e2:
		factor = 2
	}
	if power < 0 {
		inc = math.Pow(10, -power) / factor
		i1 = math.Round(start * inc)
		i2 = math.Round(stop * inc)
		if i1/inc < start {
			i1++
		}
		if i2/inc > stop {
			i2--
		}
		inc = -inc
	} else {
		inc = math.Pow(10, power) * factor
		i1 = math.Round(start / inc)
		i2 = math.Round(stop / inc)
		if i1*inc < start {
			i1++
		}
		if i2*inc > stop {
			i2--
		}
	}
	if i2 < i1 && 0.5 <= count && count < 2 {
		return tickSpec(start, stop, count*2)
	}
	return i1, i2, inc
}

func tickIncrement(start, stop, count float64) float64 {
	if stop == start || !(count > 0) {
		return 0
	}
	_, _, inc := tickSpec(start, stop, count)
	return inc
}

// tickStep returns the positive tick spacing as a plain number.
func tickStep(start, stop, count float64) float64 {
	reverse := stop < start
	var inc float64
	if reverse {
		inc = tickIncrement(stop, start, count)
	} else {
		inc = tickIncrement(start, stop, count)
	}
	if inc < 0 {
		inc = 1 / -inc
	}
	if reverse {
		return -inc
	}
	return inc
}

// Log is a base-10 logarithmic scale with a rounded range.
type Log struct {
	D0, D1 float64
	R0, R1 float64
}

// Map returns the rounded pixel position of v.
func (s Log) Map(v float64) float64 {
	l0, l1 := math.Log10(s.D0), math.Log10(s.D1)
	if l1 == l0 {
		return math.Round((s.R0 + s.R1) / 2)
	}
	return math.Round(s.R0 + (math.Log10(v)-l0)/(l1-l0)*(s.R1-s.R0))
}

// Ticks returns the log scale ticks: 1..9 times each power of ten inside
// the domain, or linear ticks when that would give too few.
func (s Log) Ticks(count int) []float64 {
	u, v := s.D0, s.D1
	reverse := v < u
	if reverse {
		u, v = v, u
	}
	t := float64(count)
	i, j := math.Log10(u), math.Log10(v)
	var z []float64
	if j-i < t {
		i, j = math.Floor(i), math.Ceil(j)
		if u > 0 {
		outer:
			for ; i <= j; i++ {
				for k := 1.0; k < 10; k++ {
					var tv float64
					if i < 0 {
						tv = k / math.Pow(10, -i)
					} else {
						tv = k * math.Pow(10, i)
					}
					if tv < u {
						continue
					}
					if tv > v {
						break outer
					}
					z = append(z, tv)
				}
			}
		}
		if float64(len(z))*2 < t {
			z = ticks(u, v, t)
		}
	} else {
		for _, e := range ticks(i, j, math.Min(j-i, t)) {
			z = append(z, math.Pow(10, e))
		}
	}
	if reverse {
		for a, b := 0, len(z)-1; a < b; a, b = a+1, b-1 {
			z[a], z[b] = z[b], z[a]
		}
	}
	return z
}

// Time maps instants linearly onto a pixel range.
type Time struct {
	D0, D1 time.Time
	R0, R1 float64
}

// Map returns the pixel position of t.
func (s Time) Map(t time.Time) float64 {
	span := s.D1.Sub(s.D0).Seconds()
	if span == 0 {
		return (s.R0 + s.R1) / 2
	}
	return s.R0 + t.Sub(s.D0).Seconds()/span*(s.R1-s.R0)
}

// Invert returns the instant at pixel p, clamped to the domain.
func (s Time) Invert(p float64) time.Time {
	if s.R1 == s.R0 {
		return s.D0
	}
	f := (p - s.R0) / (s.R1 - s.R0)
	f = math.Max(0, math.Min(1, f))
	return s.D0.Add(time.Duration(f * float64(s.D1.Sub(s.D0))))
}

const (
	durationMonth = 30 * 24 * time.Hour
	durationYear  = 365 * 24 * time.Hour
)

// Ticks returns calendar-aligned ticks for roughly count intervals. Month,
// quarter and multi-year steps are supported; the charts only plot
// monthly data.
func (s Time) Ticks(count int) []time.Time {
	start, stop := s.D0.UTC(), s.D1.UTC()
	if stop.Before(start) {
		start, stop = stop, start
	}
	target := stop.Sub(start) / time.Duration(max(count, 1))

	intervals := []struct {
		months int
		dur    time.Duration
	}{
		{1, durationMonth},
		{3, 3 * durationMonth},
		{12, durationYear},
	}

	months := 0
	switch {
	case target >= durationYear:
		years := int(math.Floor(tickStep(yearsSinceEpoch(start), yearsSinceEpoch(stop), float64(count))))
		if years < 1 {
			years = 1
		}
		months = 12 * years
	case target <= durationMonth:
		months = 1
	default:
		for i := 1; i < len(intervals); i++ {
			if target <= intervals[i].dur {
				lo, hi := intervals[i-1], intervals[i]
				if float64(target)/float64(lo.dur) < float64(hi.dur)/float64(target) {
					months = lo.months
				} else {
					months = hi.months
				}
				break
			}
		}
	}

	var out []time.Time
	t := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	if t.Before(start) {
		t = t.AddDate(0, 1, 0)
	}
	for ; !t.After(stop); t = t.AddDate(0, 1, 0) {
		if months >= 12 {
			if t.Month() == time.January && t.Year()%(months/12) == 0 {
				out = append(out, t)
			}
		} else if (int(t.Month())-1)%months == 0 {
			out = append(out, t)
		}
	}
	return out
}

func yearsSinceEpoch(t time.Time) float64 {
	return float64(t.Unix()) / durationYear.Seconds()
}

// TimeLabel formats a tick the way a multi-scale time axis does: the year
// at January, otherwise the full month name.
func TimeLabel(t time.Time) string {
	if t.Month() == time.January {
		return t.Format("2006")
	}
	return t.Format("January")
}
