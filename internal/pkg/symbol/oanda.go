package symbol

type OandaConverter struct{}

func (OandaConverter) ToBroker(internal string) string {
	return Parse(internal).Oanda()
}

func (OandaConverter) FromBroker(raw string) string {
	return Parse(raw).Internal()
}

func (OandaConverter) Format() Format {
	return FormatOanda
}

var Oanda = OandaConverter{}
