package category

// Display — параметры отображения категории на дашборде.
type Display struct {
	// Name — полное название (разбивка по хранилищу)
	Name string
	// ShortName — краткое название (распределение по типам)
	ShortName string
	// Icon — CSS-класс иконки Font Awesome
	Icon string
	// Color — цвет категории в графиках
	Color string
}

var displays = map[Category]Display{
	Image:    {Name: "Images", ShortName: "Images", Icon: "fa-image", Color: "#4361ee"},
	Video:    {Name: "Videos", ShortName: "Videos", Icon: "fa-video", Color: "#7209b7"},
	Audio:    {Name: "Audio", ShortName: "Audio", Icon: "fa-music", Color: "#f72585"},
	Document: {Name: "Documents", ShortName: "Documents", Icon: "fa-file-alt", Color: "#ff006e"},
	JSON:     {Name: "JSON Data", ShortName: "JSON", Icon: "fa-file-code", Color: "#4cc9f0"},
	Code:     {Name: "Code Files", ShortName: "Code", Icon: "fa-code", Color: "#06ffa5"},
	Archive:  {Name: "Archives", ShortName: "Archives", Icon: "fa-archive", Color: "#ffa502"},
	Unknown:  {Name: "Other", ShortName: "Other", Icon: "fa-file", Color: "#adb5bd"},
}

// DisplayOf возвращает параметры отображения категории.
func DisplayOf(c Category) Display {
	if d, ok := displays[c]; ok {
		return d
	}
	return displays[Unknown]
}
