package model

// Doctor is the schedule owner. Profile management beyond these
// fields lives in the admin CRUD surface, outside this core.
type Doctor struct {
	Base
	Name      string `json:"name" db:"name"`
	Email     string `json:"email" db:"email"`
	Specialty string `json:"specialty" db:"specialty"`
}

type CreateDoctorRequest struct {
	Name      string `json:"name" binding:"required,max=255"`
	Email     string `json:"email" binding:"required,email"`
	Specialty string `json:"specialty" binding:"max=255"`
}

// Patient is referenced by bookings and medical histories.
type Patient struct {
	Base
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`
	Phone string `json:"phone" db:"phone"`
}

type CreatePatientRequest struct {
	Name  string `json:"name" binding:"required,max=255"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"max=32"`
}
