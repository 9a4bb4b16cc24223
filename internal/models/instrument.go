package models

// InstrumentMeta — торговые ограничения инструмента с биржи.
type InstrumentMeta struct {
	Symbol   string
	QtyStep  float64 // шаг количества (lotSizeFilter.qtyStep)
	MinQty   float64 // минимальный размер ордера
	TickSize float64 // минимальный шаг цены
}
