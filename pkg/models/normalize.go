package models

const (
	MinDay      = 1
	DaysInMonth = 31

	MinPriority     = 1
	MaxPriority     = 10
	DefaultPriority = 5
)

// ClampDay forces a scheduled day into 1..31.
func ClampDay(day int) int {
	if day < MinDay {
		return MinDay
	}
	if day > DaysInMonth {
		return DaysInMonth
	}
	return day
}

// ClampPriority maps an unset (zero) priority to the default and clamps the rest into 1..10.
func ClampPriority(priority int) int {
	switch {
	case priority == 0:
		return DefaultPriority
	case priority < MinPriority:
		return MinPriority
	case priority > MaxPriority:
		return MaxPriority
	}
	return priority
}
