package payout

// Cálculo de retorno de apostas em formato americano, em centavos inteiros.
// Convenção: odds positiva X = lucro de $X a cada $100 apostados;
// odds negativa X = é preciso apostar $|X| para lucrar $100.

// Profit retorna apenas o lucro (sem a stake) em centavos, arredondamento
// half-up. Stake não positiva ou odds zero retornam 0.
func Profit(stakeCents int64, odds int) int64 {
	if stakeCents <= 0 || odds == 0 {
		return 0
	}
	if odds > 0 {
		return (stakeCents*int64(odds) + 50) / 100
	}
	abs := int64(-odds)
	return (stakeCents*100 + abs/2) / abs
}

// Calc retorna o payout total (stake + lucro) em centavos.
// Ex: Calc(10000, 150) == 25000; Calc(10000, -110) == 19091.
func Calc(stakeCents int64, odds int) int64 {
	if stakeCents <= 0 || odds == 0 {
		return 0
	}
	return stakeCents + Profit(stakeCents, odds)
}

// ValidOdds valida a faixa aceita pela API. Zero é inválido por definição
// (divisão por |odds| no ramo negativo).
func ValidOdds(odds int) bool {
	return odds != 0 && odds >= -10000 && odds <= 10000
}
