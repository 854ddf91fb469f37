package config

var DefaultConfig Config
var DefaultTheme Theme

func init() {
	DefaultTheme = Theme{
		DrawCursorBackground: true,
		CheckeredBoard:       true,
		ShowLegalMoves:       true,
		FullWidthLetters:     false,
		Colors: ConfigColors{
			BoardColor:    28,
			BoardColorAlt: 22,
			DarkColor:     232,
			LightColor:    255,
			HintColor:     148,
			CursorColorFG: 0,
			CursorColorBG: 214,
			LabelColor:    250,
		},
		Symbols: ConfigSymbols{
			DarkDisc:  '●',
			LightDisc: '●',
			Empty:     ' ',
			Hint:      '·',
		},
	}

	DefaultConfig = Config{
		Theme: DefaultTheme,
		Game: GameDefaults{
			Color:  "dark",
			PlayAs: "human",
		},
		Network: NetworkConfig{
			Host: "localhost",
			Port: 8086,
		},
	}
}
