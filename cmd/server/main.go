package main

import "github.com/genovesjohn191/dealfi/internal/app"

// @title           Dealfi API
// @version         1.0
// @description     Lead referral platform: birddogs submit leads, working roles move them through stage checklists, investors browse outcomes.

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization

func main() {
	app.Run()
}
