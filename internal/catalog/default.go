package catalog

import "InvestArena/internal/payout"

// Default returns the built-in six-round game.
func Default() *Catalog {
	positions := []payout.Position{
		{ID: "tbank", Name: "T-Bank", Rule: payout.Constant(1.1)},
		{ID: "sibur", Name: "Sibur", Rule: payout.Split(25)},
		{ID: "vk", Name: "VK", Rule: payout.Split(15)},
		{ID: "crypto", Name: "Crypto", Rule: payout.MustTiered(
			payout.Tier{Low: 1, High: 2, Coefficient: 1.5},
			payout.Tier{Low: 3, High: 4, Coefficient: 2},
			payout.Tier{Low: 5, High: 6, Coefficient: 3},
			payout.Tier{Low: 7, High: 8, Coefficient: 6},
			payout.Tier{Low: 9, Open: true, Coefficient: 0.3},
		)},
		{ID: "kinopoisk", Name: "Kinopoisk", Rule: payout.MustTiered(
			payout.Tier{Low: 1, High: 2, Coefficient: 4},
			payout.Tier{Low: 3, High: 4, Coefficient: 3},
			payout.Tier{Low: 5, High: 6, Coefficient: 2},
			payout.Tier{Low: 7, High: 8, Coefficient: 1.5},
			payout.Tier{Low: 9, Open: true, Coefficient: 0.8},
		)},
		{ID: "djara", Name: "Djara", Rule: payout.MustTiered(
			payout.Tier{Low: 4, High: 7, Coefficient: 10},
			payout.Tier{Low: 1, High: 3, Coefficient: 0.8},
			payout.Tier{Low: 8, Open: true, Coefficient: 0.8},
		)},
		{ID: "vkplay", Name: "VK Play", Rule: payout.Derived{Mother: "vk"}},
		{ID: "nft", Name: "NFT", Rule: payout.Custom{}},
	}

	rounds := [][]string{
		{"tbank", "sibur", "vk", "crypto"},
		{"tbank", "sibur", "vk", "kinopoisk", "crypto"},
		{"tbank", "sibur", "vk", "kinopoisk", "crypto", "djara"},
		{"tbank", "sibur", "vk", "crypto", "djara", "vkplay"},
		{"tbank", "sibur", "vk", "nft", "djara", "vkplay"},
		{"tbank", "sibur", "vk", "nft", "djara", "vkplay"},
	}

	quiz := Quiz{
		Questions: []Question{
			{
				Text: "Translated from one language, this company's name means envy. Its products went through " +
					"such a price jump in 2021 that some experts called it a green fever. The fever may not be over: " +
					"the company's market cap keeps breaking records.\n\nName the company.",
				Answers: []string{"nvidia", "нвидиа", "нвидия"},
			},
			{
				Text: "In Japanese gardens people admire sakura without picking the flowers. Some investors likewise " +
					"just watch \"petals\" fall into their account, sometimes up to four times a year. " +
					"What do they call these petals, in one word?",
				Answers: []string{"dividends", "дивиденды"},
			},
		},
		Bonuses: []float64{1.1, 1.21},
	}

	c, err := New(positions, rounds, quiz)
	if err != nil {
		panic("catalog: invalid default catalog: " + err.Error())
	}
	return c
}
