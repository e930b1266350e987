package app

// initDefaultRoutes initializes the applications default routes.
//  These are the routes which always are the same in every application.
//  Things like version, health, ...
func (app *App) initDefaultRoutes() {
	api := app.web.Group("/")
	if app.config.Webserver.Webservices["version"] {
		api.Get("/version", app.HandleVersion())
	}
	if app.config.Webserver.Webservices["health"] {
		api.Get("/health", app.HandleHealth())
	}
	if app.config.Webserver.Webservices["state"] {
		api.Get("/state", app.HandleState())
	}
}

// initCounterRoutes initializes the counter attribute routes, one pair of
// handlers per attribute of the facade.
func (app *App) initCounterRoutes() {
	api := app.web.Group("/")
	api.Get("/value", app.HandleGetValue())
	api.Put("/value", app.HandleSetValue())
	api.Get("/max_value", app.HandleGetMaxValue())
	api.Put("/max_value", app.HandleSetMaxValue())
	api.Get("/gpio_leds", app.HandleGetLeds())
	api.Put("/gpio_leds", app.HandleSetLeds())
	api.Get("/gpio_button_increment", app.HandleGetButton())
	api.Put("/gpio_button_increment", app.HandleSetButton())
	api.Post("/increment", app.HandleIncrement())
}
