package text

const (
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
	Gray   = "\033[90m" // Bright black, often appears as gray

	GreenInverse = "\033[7;32m"
	CyanInverse  = "\033[7;36m"

	ResetColor = "\033[0m" // Reset to default color
)

var screenColors = map[Screen]string{
	ScreenLogin:   Yellow,
	ScreenLanding: CyanInverse,
	ScreenApp:     GreenInverse,
}
