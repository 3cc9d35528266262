package seeds

func SeedAll() error {
	if err := SeedWards(); err != nil {
		return err
	}
	if err := SeedContractors(); err != nil {
		return err
	}
	if err := SeedAdmin(); err != nil {
		return err
	}
	return nil
}
