package catalog

func limit(n int) *int { return &n }

// DefaultEntries returns the built-in service table. A fresh slice is returned
// on every call.
func DefaultEntries() []ServiceCatalogEntry {
	return []ServiceCatalogEntry{
		// Drive
		{ID: "drive_towing", Name: "Grúa", Description: "Remolque del vehículo al taller más cercano",
			PlanType: PlanTypeDrive, ServiceFlow: FlowImmediate, FormType: FormVehicle, LimitPerYear: limit(3), CoverageAmount: 1500},
		{ID: "drive_jumpstart", Name: "Paso de corriente", Description: "Arranque de batería en sitio",
			PlanType: PlanTypeDrive, ServiceFlow: FlowImmediate, FormType: FormVehicle, LimitPerYear: limit(4), CoverageAmount: 400},
		{ID: "drive_tire_change", Name: "Cambio de llanta", Description: "Cambio de llanta ponchada por la de repuesto",
			PlanType: PlanTypeDrive, ServiceFlow: FlowImmediate, FormType: FormVehicle, LimitPerYear: limit(4), CoverageAmount: 400},
		{ID: "drive_fuel", Name: "Envío de combustible", Description: "Entrega de combustible de emergencia",
			PlanType: PlanTypeDrive, ServiceFlow: FlowImmediate, FormType: FormDelivery, LimitPerYear: limit(3), CoverageAmount: 300},
		{ID: "drive_locksmith", Name: "Cerrajería vehicular", Description: "Apertura de vehículo por llaves olvidadas",
			PlanType: PlanTypeDrive, ServiceFlow: FlowImmediate, FormType: FormGeneric, LimitPerYear: limit(2), CoverageAmount: 500},
		{ID: "drive_designated_driver", Name: "Conductor designado", Description: "Conductor que lleva el vehículo y al titular a su destino",
			PlanType: PlanTypeDrive, ServiceFlow: FlowScheduled, FormType: FormTaxi, LimitPerYear: limit(2), CoverageAmount: 600},
		{ID: "drive_taxi", Name: "Taxi por avería", Description: "Traslado del titular tras una avería",
			PlanType: PlanTypeDrive, ServiceFlow: FlowImmediate, FormType: FormTaxi, LimitPerYear: limit(2), CoverageAmount: 350},
		{ID: "drive_legal", Name: "Asistencia legal en accidente", Description: "Abogado en el lugar del accidente",
			PlanType: PlanTypeDrive, ServiceFlow: FlowImmediate, FormType: FormLegal, CoverageAmount: 5000},
		{ID: "drive_claim", Name: "Reembolso de gastos viales", Description: "Reclamo de gastos cubiertos",
			PlanType: PlanTypeDrive, ServiceFlow: FlowClaim, FormType: FormGeneric, CoverageAmount: 1000},
		{ID: "drive_info", Name: "Orientación vial telefónica", Description: "Información de rutas, talleres y trámites",
			PlanType: PlanTypeDrive, ServiceFlow: FlowCallback, CoverageAmount: 0},

		// Health
		{ID: "health_ambulance", Name: "Ambulancia", Description: "Traslado médico de emergencia",
			PlanType: PlanTypeHealth, ServiceFlow: FlowImmediate, FormType: FormHealth, LimitPerYear: limit(2), CoverageAmount: 3000},
		{ID: "health_home_doctor", Name: "Médico a domicilio", Description: "Consulta médica general en casa",
			PlanType: PlanTypeHealth, ServiceFlow: FlowImmediate, FormType: FormHealth, LimitPerYear: limit(4), CoverageAmount: 800},
		{ID: "health_consultation", Name: "Consulta con especialista", Description: "Cita presencial con médico especialista",
			PlanType: PlanTypeHealth, ServiceFlow: FlowScheduled, FormType: FormConsultation, LimitPerYear: limit(6), CoverageAmount: 500},
		{ID: "health_video", Name: "Videoconsulta", Description: "Consulta médica por video",
			PlanType: PlanTypeHealth, ServiceFlow: FlowScheduled, FormType: FormVideoConsultation, CoverageAmount: 250},
		{ID: "health_lab", Name: "Exámenes de laboratorio", Description: "Toma de muestras y análisis clínicos",
			PlanType: PlanTypeHealth, ServiceFlow: FlowScheduled, FormType: FormLabExam, LimitPerYear: limit(2), CoverageAmount: 700},
		{ID: "health_medication", Name: "Entrega de medicamentos", Description: "Envío de medicamentos recetados",
			PlanType: PlanTypeHealth, ServiceFlow: FlowScheduled, FormType: FormMedication, LimitPerYear: limit(6), CoverageAmount: 400},
		{ID: "health_orientation", Name: "Orientación médica telefónica", Description: "Consulta telefónica 24/7",
			PlanType: PlanTypeHealth, ServiceFlow: FlowCallback, CoverageAmount: 0},
		{ID: "health_claim", Name: "Reembolso de gastos médicos", Description: "Reclamo de gastos médicos cubiertos",
			PlanType: PlanTypeHealth, ServiceFlow: FlowClaim, FormType: FormGeneric, CoverageAmount: 2500},
	}
}

// Default builds the built-in catalog.
func Default() *Catalog {
	c, err := New(DefaultEntries())
	if err != nil {
		panic("invalid built-in catalog: " + err.Error())
	}
	return c
}
