package camera

import "fmt"

// Greeting returns the time-of-day greeting for name.
func Greeting(name string, hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return fmt.Sprintf("Добро утро, %s ☀️", name)
	case hour >= 12 && hour < 18:
		return fmt.Sprintf("Здрасти, %s 👋", name)
	case hour >= 18 && hour < 23:
		return fmt.Sprintf("Добър вечер, %s 🌙", name)
	}
	return fmt.Sprintf("Още си буден, %s? 👀", name)
}
