// Package api serves taskboard's JSON HTTP endpoints.
//
// Routes:
//
//	POST   /api/auth/register   {name, email, password} -> {user, token}
//	POST   /api/auth/login      {email, password}       -> {user, token}
//	GET    /api/boards                                  -> [board]
//	POST   /api/boards          {name}                  -> board (201)
//	PUT    /api/boards          {id, name}              -> board
//	DELETE /api/boards          {id}                    -> {message}
//	GET    /api/tasks?boardId=  [&format=html]          -> [task]
//	POST   /api/tasks           {title, boardId, ...}   -> task (201)
//	PUT    /api/tasks           {id, ...fields}         -> task
//	DELETE /api/tasks           {id}                    -> {message}
//	GET    /api/debug           (when enabled)          -> caller's data and counts
//
// Everything except register and login requires a bearer token. Errors are
// returned as {"error": "..."}. Ownership is checked here: a record that
// exists but belongs to someone else is answered with 403.
package api
