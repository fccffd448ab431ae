package httpapi

func (s *Server) routes() {
	s.mux.HandleFunc("GET /projects", s.listProjects)
	s.mux.HandleFunc("POST /projects", s.createProject)
	s.mux.HandleFunc("GET /projects/{id}", s.getProject)

	s.mux.HandleFunc("GET /projects/{projectID}/plans", s.listPlans)
	s.mux.HandleFunc("POST /plans", s.createPlan)
	s.mux.HandleFunc("GET /plans/{id}", s.getPlan)
	s.mux.HandleFunc("PUT /plans/{id}", s.updatePlan)

	s.mux.HandleFunc("GET /plans/{planID}/tasks", s.listTasks)
	s.mux.HandleFunc("POST /tasks", s.createTask)
	s.mux.HandleFunc("GET /tasks/{id}", s.getTask)
	s.mux.HandleFunc("PUT /tasks/{id}", s.updateTask)

	s.mux.HandleFunc("GET /notes", s.listNotes)
	s.mux.HandleFunc("GET /notes/{id}", s.getNote)
	s.mux.HandleFunc("POST /notes", s.createNote)
	s.mux.HandleFunc("PUT /notes/{id}/confirm", s.confirmNote)
	s.mux.HandleFunc("DELETE /notes/{id}", s.deleteNote)

	s.mux.HandleFunc("GET /search", s.handleSearch)
}
