package analysis

import (
	"storagefin/pkg/contracts/domain"
)

// Assemble derives the snapshot from extracted inputs.
func Assemble(in *Inputs) (*domain.FinancialSnapshot, error) {
	dscr, err := DSCR(in.OperatingCashFlow, in.InterestExpense)
	if err != nil {
		return nil, err
	}

	cum := CumulativeDeficit(in.OperatingCashFlow)
	breakEven, ok := MonthsToPositive(dscr)
	deficit := DeficitAt(cum, breakEven, ok)
	reserves := ReserveTotal(in.Cash, in.Escrow)

	snap := &domain.FinancialSnapshot{
		Months:             in.Months,
		RentalIncome:       in.RentalIncome.Last(),
		RentalIncomeChange: in.RentalIncome.Change(),
		ProjectedRent:      in.ProjectedRent.Last(),
		OccupiedSqFt:       in.OccupiedSqFt.Last(),
		NetRentableSqFt:    in.NetRentableSqFt.Last(),
		Occupancy:          in.Occupancy.Last(),
		OccupancyChange:    in.Occupancy.Change(),
		DSCR:               domain.UndefinedRatio(),

		Cash:         in.Cash,
		Escrow:       in.Escrow,
		CashReserves: reserves,

		CumulativeDeficit: deficit,
		FundingGap:        FundingGap(deficit, reserves),

		InterestFallbackUsed: in.InterestFallback,

		Series: domain.SnapshotSeries{
			RentalIncome:      in.RentalIncome,
			Occupancy:         in.Occupancy,
			OperatingCashFlow: in.OperatingCashFlow,
			InterestExpense:   in.InterestExpense,
			DSCR:              dscr,
			CumulativeDeficit: cum,
		},
	}
	if len(dscr) > 0 {
		snap.DSCR = dscr[len(dscr)-1]
	}
	if ok {
		snap.MonthsToPositiveDSCR = &breakEven
	}

	return snap, nil
}
