package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// liseTheme is a custom theme for the LISE Desktop console
type liseTheme struct{}

func (t *liseTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0x00, G: 0x79, B: 0x6B, A: 0xFF} // LISE teal
	case theme.ColorNameButton:
		return color.NRGBA{R: 0x00, G: 0x79, B: 0x6B, A: 0xFF}
	case theme.ColorNameSuccess:
		return color.NRGBA{R: 0x4C, G: 0xAF, B: 0x50, A: 0xFF}
	case theme.ColorNameError:
		return color.NRGBA{R: 0xF4, G: 0x43, B: 0x36, A: 0xFF}
	case theme.ColorNameWarning:
		return color.NRGBA{R: 0xFF, G: 0x98, B: 0x00, A: 0xFF}
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *liseTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *liseTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *liseTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameText:
		return 13
	case theme.SizeNameHeadingText:
		return 18
	default:
		return theme.DefaultTheme().Size(name)
	}
}
