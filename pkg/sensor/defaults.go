package sensor

// DefaultProfiles are the sensors found in common scanner builds.
var DefaultProfiles = []Profile{
	{
		Name:           "imx519",
		Description:    "Arducam IMX519 16MP AF",
		SensorWidthMM:  4.64,
		SensorHeightMM: 3.48,
		NativeWidth:    4656,
		NativeHeight:   3496,
		FocalLengthMM:  4.28, // M12 lens
	},
	{
		Name:           "hawkeye",
		Aliases:        []string{"arducam_64mp"},
		Description:    "Arducam Hawkeye 64MP AF",
		SensorWidthMM:  6.45,
		SensorHeightMM: 4.84,
		NativeWidth:    9152,
		NativeHeight:   6944,
		FocalLengthMM:  5.1,
	},
	{
		Name:           "imx708",
		Description:    "Raspberry Pi Camera Module 3",
		SensorWidthMM:  6.45,
		SensorHeightMM: 3.63,
		NativeWidth:    4608,
		NativeHeight:   2592,
		FocalLengthMM:  4.74,
	},
	{
		Name:           "imx477",
		Description:    "Raspberry Pi HQ Camera",
		SensorWidthMM:  6.287,
		SensorHeightMM: 4.712,
		NativeWidth:    4056,
		NativeHeight:   3040,
		FocalLengthMM:  6.0, // varies by lens
	},
}

var defaultTable = mustTable(DefaultProfiles...)

// Default returns the built-in sensor table.
func Default() *Table {
	return defaultTable
}

func mustTable(ps ...Profile) *Table {
	t, err := NewTable(ps...)
	if err != nil {
		panic(err)
	}
	return t
}
