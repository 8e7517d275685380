package textgrid

// sampleTextGrid is a canonical two-tier file as written by Write.
const sampleTextGrid = `File type = "ooTextFile"
Object class = "TextGrid"

xmin = 0
xmax = 2.5
tiers? <exists>
size = 2
item []:
    item [1]:
        class = "IntervalTier"
        name = "words"
        xmin = 0
        xmax = 2.5
        intervals: size = 2
        intervals [1]:
            xmin = 0
            xmax = 1
            text = "nei5"
        intervals [2]:
            xmin = 1
            xmax = 2.5
            text = "hou2"
    item [2]:
        class = "IntervalTier"
        name = "phones"
        xmin = 0
        xmax = 2.5
        intervals: size = 4
        intervals [1]:
            xmin = 0
            xmax = 0.5
            text = "n"
        intervals [2]:
            xmin = 0.5
            xmax = 1
            text = "ei"
        intervals [3]:
            xmin = 1
            xmax = 2
            text = "h"
        intervals [4]:
            xmin = 2
            xmax = 2.5
            text = "ou"
`

// sampleDocument is the parsed form of sampleTextGrid.
func sampleDocument() *Document {
	return &Document{
		MinTime: 0,
		MaxTime: 2.5,
		Items: []Tier{
			{
				Name: "words", MinTime: 0, MaxTime: 2.5,
				Intervals: []Interval{
					{MinTime: 0, MaxTime: 1, Text: "nei5"},
					{MinTime: 1, MaxTime: 2.5, Text: "hou2"},
				},
			},
			{
				Name: "phones", MinTime: 0, MaxTime: 2.5,
				Intervals: []Interval{
					{MinTime: 0, MaxTime: 0.5, Text: "n"},
					{MinTime: 0.5, MaxTime: 1, Text: "ei"},
					{MinTime: 1, MaxTime: 2, Text: "h"},
					{MinTime: 2, MaxTime: 2.5, Text: "ou"},
				},
			},
		},
	}
}
